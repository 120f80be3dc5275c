package repository

import (
	"homehub/database"
	bookingRepo "homehub/database/repository/booking"
	catalogRepo "homehub/database/repository/catalog"
	offerRepo "homehub/database/repository/offer"
	recordsRepo "homehub/database/repository/records"
	reviewRepo "homehub/database/repository/review"
	subscriptionRepo "homehub/database/repository/subscription"
	userRepo "homehub/database/repository/user"
	"homehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Re-export the shared sentinels.
var (
	ErrNotFound  = database.ErrNotFound
	ErrDuplicate = database.ErrDuplicate
)

// Re-export the repository interfaces.
type (
	UserRepository         = userRepo.UserRepository
	ReferralRepository     = userRepo.ReferralRepository
	CategoryRepository     = catalogRepo.CategoryRepository
	ServiceTypeRepository  = catalogRepo.ServiceTypeRepository
	ServiceRepository      = catalogRepo.ServiceRepository
	BookingRepository      = bookingRepo.BookingRepository
	ReviewRepository       = reviewRepo.ReviewRepository
	PlanRepository         = subscriptionRepo.PlanRepository
	SubscriptionRepository = subscriptionRepo.SubscriptionRepository
	MembershipRepository   = subscriptionRepo.MembershipRepository
	OfferRepository        = offerRepo.OfferRepository
)

// Repositories bundles every collection the API touches.
type Repositories struct {
	Users         UserRepository
	Referrals     ReferralRepository
	Categories    CategoryRepository
	ServiceTypes  ServiceTypeRepository
	Services      ServiceRepository
	Bookings      BookingRepository
	Reviews       ReviewRepository
	Plans         PlanRepository
	Subscriptions SubscriptionRepository
	Memberships   MembershipRepository
	Offers        OfferRepository

	TeamMembers      recordsRepo.Store[models.TeamMember]
	Testimonials     recordsRepo.Store[models.Testimonial]
	Banners          recordsRepo.Store[models.PromotionalBanner]
	Jobs             recordsRepo.Store[models.Job]
	Applications     recordsRepo.Store[models.JobApplication]
	Investments      recordsRepo.Store[models.Investment]
	WomenInitiatives recordsRepo.Store[models.WomenInitiative]
	Inquiries        recordsRepo.Store[models.Inquiry]
}

func index(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

var orderIndex = index("active_order_idx", bson.D{{Key: "active", Value: 1}, {Key: "order", Value: 1}})

// NewRepositories wires every Mongo repository against db.
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:         userRepo.NewMongoUserRepo(db),
		Referrals:     userRepo.NewMongoReferralRepo(db),
		Categories:    catalogRepo.NewMongoCategoryRepo(db),
		ServiceTypes:  catalogRepo.NewMongoServiceTypeRepo(db),
		Services:      catalogRepo.NewMongoServiceRepo(db),
		Bookings:      bookingRepo.NewMongoBookingRepo(db),
		Reviews:       reviewRepo.NewMongoReviewRepo(db),
		Plans:         subscriptionRepo.NewMongoPlanRepo(db),
		Subscriptions: subscriptionRepo.NewMongoSubscriptionRepo(db),
		Memberships:   subscriptionRepo.NewMongoMembershipRepo(db),
		Offers:        offerRepo.NewMongoOfferRepo(db),

		TeamMembers:  recordsRepo.NewMongoStore[models.TeamMember](db, "team_members", orderIndex),
		Testimonials: recordsRepo.NewMongoStore[models.Testimonial](db, "testimonials", orderIndex),
		Banners:      recordsRepo.NewMongoStore[models.PromotionalBanner](db, "promotional_banners", orderIndex),
		Jobs: recordsRepo.NewMongoStore[models.Job](db, "jobs",
			index("open_created_idx", bson.D{{Key: "open", Value: 1}, {Key: "createdAt", Value: -1}})),
		Applications: recordsRepo.NewMongoStore[models.JobApplication](db, "job_applications",
			index("job_created_idx", bson.D{{Key: "jobId", Value: 1}, {Key: "createdAt", Value: -1}})),
		Investments: recordsRepo.NewMongoStore[models.Investment](db, "investments",
			index("status_created_idx", bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}})),
		WomenInitiatives: recordsRepo.NewMongoStore[models.WomenInitiative](db, "women_initiatives",
			index("status_created_idx", bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}})),
		Inquiries: recordsRepo.NewMongoStore[models.Inquiry](db, "inquiries",
			index("kind_created_idx", bson.D{{Key: "kind", Value: 1}, {Key: "createdAt", Value: -1}})),
	}
}
