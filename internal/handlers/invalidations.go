package handlers

// Mutation names
const (
	MutationVideoUpload        = "video.upload"
	MutationVideoUpdate        = "video.update"
	MutationVideoDelete        = "video.delete"
	MutationProfileUpdate      = "profile.update"
	MutationPaymentInfoUpdate  = "paymentInfo.update"
	MutationScriptDownload     = "script.download"
	MutationAdminVideoStatus   = "admin.video.status"
	MutationAdminVideoDelete   = "admin.video.delete"
	MutationAdminPaymentStatus = "admin.payment.status"
	MutationAdminPaymentCreate = "admin.payment.create"
	MutationAdminProfile       = "admin.profile.update"
	MutationAdminPassword      = "admin.password.change"
	MutationAdminTopicCreate   = "admin.topic.create"
	MutationAdminTopicUpdate   = "admin.topic.update"
	MutationAdminTopicDelete   = "admin.topic.delete"
)

// Query resources
const (
	ResourceDashboard     = "dashboard"
	ResourceStats         = "stats"
	ResourceRewards       = "rewards"
	ResourceStreak        = "streak"
	ResourceProfile       = "profile"
	ResourceTopics        = "topics"
	ResourceTopic         = "topic"
	ResourceMyVideos      = "my-videos"
	ResourcePayments      = "payments"
	ResourcePaymentStats  = "payment-stats"
	ResourceCategories    = "script-categories"
	ResourceScripts       = "scripts"
	ResourceScript        = "script"
	ResourceAdminOverview = "admin-overview"
	ResourceAdminVideos   = "admin-videos"
	ResourceAdminUsers    = "admin-users"
	ResourceAdminUser     = "admin-user"
	ResourceAdminPayments = "admin-payments"
	ResourceAdminEligible = "admin-eligible"
)

// Invalidations declares, once, which resources each mutation makes stale
var Invalidations = map[string][]string{
	MutationVideoUpload:        {ResourceMyVideos, ResourceDashboard},
	MutationVideoUpdate:        {ResourceMyVideos, ResourceDashboard},
	MutationVideoDelete:        {ResourceMyVideos, ResourceDashboard},
	MutationProfileUpdate:      {ResourceRewards, ResourceStats},
	MutationPaymentInfoUpdate:  {ResourceProfile},
	MutationScriptDownload:     {ResourceScript},
	MutationAdminVideoStatus:   {ResourceAdminVideos, ResourceAdminOverview},
	MutationAdminVideoDelete:   {ResourceAdminVideos, ResourceAdminOverview},
	MutationAdminPaymentStatus: {ResourceAdminPayments},
	MutationAdminPaymentCreate: {ResourceAdminPayments, ResourceAdminEligible},
	MutationAdminProfile:       {},
	MutationAdminPassword:      {},
	MutationAdminTopicCreate:   {ResourceTopics},
	MutationAdminTopicUpdate:   {ResourceTopics, ResourceTopic},
	MutationAdminTopicDelete:   {ResourceTopics, ResourceTopic},
}
