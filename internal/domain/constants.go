package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Order lifecycle. Confirmed orders either ship or land in manual review;
// they must never stall in CONFIRMED after a dispatch attempt.
const (
	OrderStatusConfirmed    = "confirmed"
	OrderStatusProcessing   = "processing"
	OrderStatusShipped      = "shipped"
	OrderStatusDelivered    = "delivered"
	OrderStatusManualReview = "manual_review"
)

const (
	PurchaseTypeMerchandise = "merchandise"
	PurchaseTypeGiftCard    = "gift_card"
)

const (
	ReferralStatusPending   = "pending"
	ReferralStatusConverted = "converted"
)

const (
	CreditTxTypePurchase       = "PURCHASE"
	CreditTxTypeReferralReward = "REFERRAL_REWARD"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Tunables stored in system_settings.
const (
	SettingReferralRewardCents   = "referral_reward_cents"
	SettingReferralDiscountPct   = "referral_discount_pct"
	SettingGiftCardExpiryMonths  = "gift_card_expiry_months"
	SettingDispatchMinAgeMinutes = "dispatch_min_age_minutes"
)
