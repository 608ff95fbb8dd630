package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lingoflow/backend/config"
	"github.com/lingoflow/backend/internal/model"
	"github.com/lingoflow/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/klog/v2"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
)

// Capability names checked against the static role table. Permissions gate
// what the UI offers; the store's own rules remain the final authority.
const (
	CapProjectEdit    = "project.edit"
	CapRowEdit        = "row.edit"
	CapTranslateRun   = "translate.run"
	CapApprovalAct    = "approval.act"
	CapTemplateEdit   = "template.edit"
	CapGlossaryEdit   = "glossary.edit"
	CapGlossaryReview = "glossary.review"
	CapUserManage     = "user.manage"
	CapAuditView      = "audit.view"
)

// roleCapabilities is the static capability table. Viewers get read-only
// access, which needs no entry here.
var roleCapabilities = map[string]map[string]bool{
	model.RoleAdmin: {
		CapProjectEdit: true, CapRowEdit: true, CapTranslateRun: true,
		CapApprovalAct: true, CapTemplateEdit: true, CapGlossaryEdit: true,
		CapGlossaryReview: true, CapUserManage: true, CapAuditView: true,
	},
	model.RoleManager: {
		CapApprovalAct: true, CapGlossaryReview: true, CapAuditView: true,
	},
	model.RoleEditor: {
		CapProjectEdit: true, CapRowEdit: true, CapTranslateRun: true,
		CapGlossaryEdit: true, CapTemplateEdit: true,
	},
	model.RoleViewer: {},
}

// HasCapability consults the role table; unknown roles have no capabilities.
func HasCapability(user *model.User, capability string) bool {
	if user == nil {
		return false
	}
	return roleCapabilities[user.Role][capability]
}

type UserService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	audit    *AuditService
}

func NewUserService(cfg *config.Config, userRepo repository.UserRepository, audit *AuditService) *UserService {
	return &UserService{cfg: cfg, userRepo: userRepo, audit: audit}
}

// EnsureAdmin seeds a first admin account on an empty user table so a fresh
// deployment is reachable.
func (s *UserService) EnsureAdmin(email, password string) error {
	count, err := s.userRepo.Count()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &model.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	klog.V(6).Infof("seeded initial admin account: %s", email)
	return nil
}

type CreateUserRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Name      string   `json:"name" binding:"required,min=1,max=255"`
	Password  string   `json:"password" binding:"required,min=8"`
	Role      string   `json:"role" binding:"required"`
	Languages []string `json:"languages"`
}

func (s *UserService) Create(actor *model.User, req CreateUserRequest) (*model.User, error) {
	if !validRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if existing, err := s.userRepo.GetByEmail(req.Email); err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		Languages:    model.StringList(req.Languages),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "user.create", "user", strconv.FormatUint(uint64(user.ID), 10), 0, nil,
			map[string]string{"email": user.Email, "role": user.Role})
	}
	return user, nil
}

type UpdateUserRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=255"`
	Role      string   `json:"role" binding:"required"`
	Languages []string `json:"languages"`
}

func (s *UserService) Update(actor *model.User, id uint, req UpdateUserRequest) (*model.User, error) {
	if !validRole(req.Role) {
		return nil, ErrInvalidRole
	}
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"name": user.Name, "role": user.Role, "languages": user.Languages}

	user.Name = req.Name
	user.Role = req.Role
	user.Languages = model.StringList(req.Languages)
	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "user.update", "user", strconv.FormatUint(uint64(id), 10), 0, before,
			map[string]interface{}{"name": user.Name, "role": user.Role, "languages": user.Languages})
	}
	return user, nil
}

func (s *UserService) List() ([]model.User, error) {
	return s.userRepo.List()
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.userRepo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(actor *model.User, id uint) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(actor, "user.delete", "user", strconv.FormatUint(uint64(id), 10), 0,
			map[string]string{"email": user.Email}, nil)
	}
	return nil
}

// Login verifies credentials and issues a signed token.
func (s *UserService) Login(email, password string) (string, *model.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	expiry := s.cfg.Auth.TokenExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(expiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

// VerifyToken parses and validates a session token, returning its user.
func (s *UserService) VerifyToken(tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.Get(uint(sub))
}

func validRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleManager, model.RoleEditor, model.RoleViewer:
		return true
	}
	return false
}
