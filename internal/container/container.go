package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/fixify/fixify-server/internal/helpers"
	"github.com/fixify/fixify-server/internal/models"
	"github.com/fixify/fixify-server/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger        *slog.Logger
	Cloudinary    *cloudinary.Cloudinary
	MongoDBClient *mongo.Client
	JWTSecret     string

	Repo           *models.MongodbRepo
	UserService    *services.UserService
	BookingService *services.BookingService
	CatalogService *services.CatalogService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	mongoDBClient *mongo.Client,
	dbName string,
	jwtSecret string,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, dbName)
	images := helpers.NewImageStore(cld)

	userService := services.NewUserService(repo, images, jwtSecret)
	bookingService := services.NewBookingService(repo, images)
	catalogService := services.NewCatalogService(repo)

	return &Container{
		Logger:         logger,
		Cloudinary:     cld,
		MongoDBClient:  mongoDBClient,
		JWTSecret:      jwtSecret,
		Repo:           repo,
		UserService:    userService,
		BookingService: bookingService,
		CatalogService: catalogService,
	}
}
