package handler

import (
	"errors"
	"net/http"

	"bottega/internal/middleware"
	"bottega/internal/models"
	"bottega/internal/repository"
	"bottega/pkg/codegen"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReferralHandler struct {
	referrals *repository.ReferralRepository
}

func NewReferralHandler(referrals *repository.ReferralRepository) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// GetMyCode returns the caller's invite code, minting one on first access.
func (h *ReferralHandler) GetMyCode(c *gin.Context) {
	userID := middleware.GetUserID(c)
	rc, err := h.referrals.GetCodeByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load referral code"})
			return
		}
		code, genErr := codegen.GenerateUnique(codegen.NewReferralCode, h.referrals.CodeExists, 10)
		if genErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create referral code"})
			return
		}
		rc = &models.ReferralCode{UserID: userID, Code: code, IsActive: true}
		if err := h.referrals.CreateCode(rc); err != nil {
			// Lost a race with another request from the same user.
			if existing, reErr := h.referrals.GetCodeByUserID(userID); reErr == nil {
				rc = existing
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create referral code"})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"code": rc.Code, "is_active": rc.IsActive})
}

func (h *ReferralHandler) ListMine(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.referrals.ListByReferrerID(middleware.GetUserID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load referrals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": list})
}
