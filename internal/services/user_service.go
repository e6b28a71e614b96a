package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fixify/fixify-server/internal/helpers"
	"github.com/fixify/fixify-server/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo  models.UserRepo
	images    ImageUploader
	jwtSecret string
}

func NewUserService(userRepo models.UserRepo, images ImageUploader, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		images:    images,
		jwtSecret: jwtSecret,
	}
}

type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

func (us *UserService) Register(ctx context.Context, in Registration) (*models.User, error) {
	if !helpers.IsPasswordStrong(in.Password) {
		return nil, models.Invalid("password is not strong enough")
	}

	role := models.Role(in.Role)
	if in.Role == "" {
		role = models.RoleCustomer
	}
	if !role.Valid() || role == models.RoleAdmin {
		return nil, models.Invalid("role must be customer or contractor")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &models.User{
		FirstName:    helpers.StringTrim(in.FirstName),
		LastName:     helpers.StringTrim(in.LastName),
		Email:        helpers.StringTrim(in.Email),
		Phone:        helpers.StringTrim(in.Phone),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := models.Validate.Struct(user); err != nil {
		return nil, models.Invalid("invalid user data: %v", err)
	}

	if err := us.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and issues a signed token.
func (us *UserService) Authenticate(ctx context.Context, email, password string) (string, *models.User, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return "", nil, models.Invalid("invalid email format")
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return "", nil, models.Invalid("invalid password format")
	}

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", models.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", models.ErrForbidden)
	}

	token, err := helpers.SignToken(us.jwtSecret, user.ID.Hex(), user.Email, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %v", err)
	}
	return token, user, nil
}

func (us *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return us.userRepo.GetUserByID(ctx, id)
}

func (us *UserService) ListUsers(ctx context.Context, actor models.Actor, role models.Role, page, limit int) ([]*models.User, models.PageSpec, int64, error) {
	if actor.Role != models.RoleAdmin {
		return nil, models.PageSpec{}, 0, fmt.Errorf("%w: only admins can list users", models.ErrForbidden)
	}

	spec := models.NormalizePage(page, limit, "")
	users, total, err := us.userRepo.ListUsers(ctx, role, spec)
	return users, spec, total, err
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (us *UserService) UpdateUser(ctx context.Context, actor models.Actor, id primitive.ObjectID, in ProfileUpdate) (*models.User, error) {
	if actor.Role != models.RoleAdmin && actor.ID != id {
		return nil, fmt.Errorf("%w: cannot update another user's profile", models.ErrForbidden)
	}

	set := bson.M{}
	if in.FirstName != nil {
		set["first_name"] = helpers.StringTrim(*in.FirstName)
	}
	if in.LastName != nil {
		set["last_name"] = helpers.StringTrim(*in.LastName)
	}
	if in.Phone != nil {
		set["phone"] = helpers.StringTrim(*in.Phone)
	}
	if in.AvatarURL != nil {
		set["avatar_url"] = *in.AvatarURL
	}
	if len(set) == 0 {
		return nil, models.Invalid("no fields to update")
	}
	set["updated_at"] = time.Now()

	return us.userRepo.UpdateUser(ctx, id, set)
}

// UploadAvatar stores a profile image and records its URL. Users may only
// change their own avatar; admins may change anyone's.
func (us *UserService) UploadAvatar(ctx context.Context, actor models.Actor, id primitive.ObjectID, imageData string) (string, error) {
	if actor.Role != models.RoleAdmin && actor.ID != id {
		return "", fmt.Errorf("%w: cannot change another user's avatar", models.ErrForbidden)
	}
	if imageData == "" {
		return "", models.Invalid("image data is required")
	}
	if us.images == nil {
		return "", fmt.Errorf("image uploads are not configured")
	}

	urls, err := us.images.Upload(ctx, []string{imageData}, helpers.AvatarFolder)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %v", err)
	}
	if len(urls) == 0 {
		return "", models.Invalid("image data is required")
	}

	set := bson.M{"avatar_url": urls[0], "updated_at": time.Now()}
	if _, err := us.userRepo.UpdateUser(ctx, id, set); err != nil {
		return "", err
	}
	return urls[0], nil
}

func (us *UserService) DeleteUser(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins can delete users", models.ErrForbidden)
	}
	return us.userRepo.DeleteUser(ctx, id)
}
