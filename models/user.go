package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID          int        `gorm:"primary_key" json:"id"`
	Name        string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Email       string     `gorm:"size:255;uniqueIndex;not null" json:"email" binding:"required"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	Role        UserRole   `gorm:"size:20;not null;default:MEMBER" json:"role"`
	Phone       string     `gorm:"size:30" json:"phone"`
	AvatarUrl   string     `gorm:"size:500" json:"avatarUrl"`
	IsActive    *bool      `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewUser struct {
	Name      string   `json:"name" binding:"required"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password"`
	Role      UserRole `json:"role"`
	Phone     string   `json:"phone"`
	AvatarUrl string   `json:"avatarUrl"`
	IsActive  *bool    `json:"isActive"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewUser) validate(ctx context.Context, id int) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "must be a valid email address")
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, id); err != nil {
		return utils.NewValidationError("email", "is already in use")
	}

	if input.Role == "" {
		input.Role = UserRoleMember
	}
	if !input.Role.Valid() {
		return utils.NewValidationError("role", "must be one of ADMIN, MANAGER, AGENT, MEMBER")
	}

	if id == 0 && input.Password == "" {
		return utils.NewValidationError("password", "is required")
	}
	if input.Password != "" && len(input.Password) < 8 {
		return utils.NewValidationError("password", "must be at least 8 characters")
	}

	if input.Phone != "" && !utils.ValidatePhoneNumber(input.Phone) {
		return utils.NewValidationError("phone", "is not a valid phone number")
	}

	return nil
}

type LoginInfo struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login checks credentials against the database (never the cache, which
// carries no password hash) and issues an opaque session token.
func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {
	db := config.GetDB()
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Take(&user).Error
	if err != nil {
		return nil, utils.ErrorInvalidCredentials
	}

	err = utils.ComparePassword(user.Password, password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, utils.ErrorInvalidCredentials
		}
		return nil, err
	}

	if user.IsActive != nil && !*user.IsActive {
		return nil, utils.ErrorUserDisabled
	}

	token := uuid.New()
	if err := config.AddRedisSet("Tokens:"+user.Email, token.String()); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token.String(), user.Email, utils.TokenLifespan()); err != nil {
		return nil, err
	}

	now := time.Now()
	// UpdateColumn keeps lifecycle hooks quiet; logins are not audited as updates
	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		UpdateColumn("last_login_at", now).Error; err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	_ = utils.StoreRedis(user.Email, &user)

	return &LoginInfo{Token: token.String(), User: &user}, nil
}

func Logout(ctx context.Context) (bool, error) {
	token := utils.GetContextToken(ctx)
	if token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	email := utils.GetContextUserEmail(ctx)
	if email == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisSetMember("Tokens:"+email, token); err != nil {
		return false, err
	}
	return true, nil
}

// DestroyAllSessions revokes every session token of the user, keeping
// exceptToken alive when non-empty.
func DestroyAllSessions(email string, exceptToken string) error {
	allTokens, err := config.GetRedisSetMembers("Tokens:" + email)
	if err != nil {
		return err
	}
	for _, token := range allTokens {
		if exceptToken != "" && token == exceptToken {
			continue
		}
		if err := config.RemoveRedisKey("Token:" + token); err != nil {
			return err
		}
		if err := config.RemoveRedisSetMember("Tokens:"+email, token); err != nil {
			return err
		}
	}
	return nil
}

func ChangePassword(ctx context.Context, currentPassword string, newPassword string) (*User, error) {
	email := utils.GetContextUserEmail(ctx)
	if email == "" {
		return nil, errors.New("user not found")
	}
	if len(newPassword) < 8 {
		return nil, utils.NewValidationError("newPassword", "must be at least 8 characters")
	}

	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Take(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	if err := utils.ComparePassword(user.Password, currentPassword); err != nil {
		return nil, utils.ErrorInvalidCredentials
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		UpdateColumn("password", hashed).Error; err != nil {
		return nil, err
	}

	// other devices lose access; the session that changed the password stays
	if err := DestroyAllSessions(user.Email, utils.GetContextToken(ctx)); err != nil {
		return nil, err
	}
	InvalidateResource[User](user.Email)

	user.Password = hashed
	return &user, nil
}

// GetUserByEmail is the auth layer's read path: redis first, then the
// database, refilling the cache on miss.
func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	cached, _ := utils.RetrieveRedis[User](email)
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Take(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	_ = utils.StoreRedis(email, &user)
	return &user, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	isActive := utils.NewTrue()
	if input.IsActive != nil {
		isActive = input.IsActive
	}

	user := User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  hashed,
		Role:      input.Role,
		Phone:     input.Phone,
		AvatarUrl: input.AvatarUrl,
		IsActive:  isActive,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, utils.NewValidationError("email", "is already in use")
		}
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	previousEmail := user.Email
	wasActive := user.IsActive == nil || *user.IsActive

	updates := map[string]interface{}{
		"Name":      input.Name,
		"Email":     input.Email,
		"Role":      input.Role,
		"Phone":     input.Phone,
		"AvatarUrl": input.AvatarUrl,
	}
	if input.IsActive != nil {
		updates["IsActive"] = input.IsActive
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["Password"] = hashed
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	InvalidateResource[User](previousEmail)
	if user.Email != previousEmail {
		InvalidateResource[User](user.Email)
	}

	// deactivation revokes every session immediately
	if input.IsActive != nil && !*input.IsActive && wasActive {
		if err := DestroyAllSessions(user.Email, ""); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func DeleteUser(ctx context.Context, id int) (*User, error) {
	if utils.GetContextUserId(ctx) == id {
		return nil, utils.NewConflictError("cannot delete your own account")
	}

	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()

	var blockingProjects []BlockerRef
	err = db.WithContext(ctx).Model(&Project{}).
		Select("id, name").
		Where("manager_id = ? AND status IN ?", id, []ProjectStatus{ProjectStatusPlanning, ProjectStatusInProgress}).
		Scan(&blockingProjects).Error
	if err != nil {
		return nil, err
	}

	var blockingTasks []BlockerRef
	err = db.WithContext(ctx).Model(&Task{}).
		Select("id, title as name").
		Where("assignee_id = ? AND status IN ?", id, []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview}).
		Scan(&blockingTasks).Error
	if err != nil {
		return nil, err
	}

	if len(blockingProjects) > 0 || len(blockingTasks) > 0 {
		return nil, utils.NewConflictErrorWithDetails(
			"team member still has active assignments",
			map[string]interface{}{
				"projects": blockingProjects,
				"tasks":    blockingTasks,
			})
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	InvalidateResource[User](user.Email)
	if err := DestroyAllSessions(user.Email, ""); err != nil {
		return nil, err
	}

	return user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}

type TeamListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Search    string `form:"search"`
	Role      string `form:"role"`
	IsActive  *bool  `form:"isActive"`
}

var userSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

func PaginateUsers(ctx context.Context, query *TeamListQuery) ([]*User, *Pagination, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&User{})

	if query.Role != "" {
		if !UserRole(query.Role).Valid() {
			return nil, nil, utils.NewValidationError("role", "must be one of ADMIN, MANAGER, AGENT, MEMBER")
		}
		dbCtx = dbCtx.Where("role = ?", query.Role)
	}
	if query.IsActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *query.IsActive)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "name", "email")

	order := ResolveSort(query.SortBy, query.SortOrder, userSortColumns, "createdAt", "desc")
	return FetchPageOffset[User](dbCtx, query.Page, query.Limit, order)
}
