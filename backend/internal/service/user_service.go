package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/recognition"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// ── 人员模块业务错误 ──

var (
	ErrUserNotFound    = errors.New("人员不存在")
	ErrEmployeeIDTaken = errors.New("工号已被注册")
)

// UserService 人员业务接口
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string) error
	// RegisterFace 将抓拍图注册为人员底库照片
	RegisterFace(ctx context.Context, id string, image []byte) error
}

type userService struct {
	repo   *repository.Repository
	recog  recognition.Client
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, recog recognition.Client, logger *zap.Logger) UserService {
	return &userService{repo: repo, recog: recog, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmployeeID(ctx, req.EmployeeID); err == nil {
		return nil, ErrEmployeeIDTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	user := &model.User{
		FullName:              req.FullName,
		EmployeeID:            req.EmployeeID,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Role:                  role,
		IsActive:              true,
		TelegramNotifications: true,
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		h := string(hash)
		user.PasswordHash = &h
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建人员失败", zap.Error(err))
		return nil, err
	}

	for _, gid := range req.GroupIDs {
		if err := s.repo.Group.AddMember(ctx, gid, user.UserID); err != nil {
			s.logger.Warn("加入班组失败",
				zap.String("user_id", user.UserID),
				zap.String("group_id", gid),
				zap.Error(err))
		}
	}

	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return s.toUserResponse(created), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询人员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GroupID, req.Keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出人员失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *s.toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新人员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 覆盖式重设班组归属
	if req.GroupIDs != nil {
		for gid := range user.GroupIDs() {
			if err := s.repo.Group.RemoveMember(ctx, gid, user.UserID); err != nil {
				s.logger.Warn("移出班组失败", zap.String("group_id", gid), zap.Error(err))
			}
		}
		for _, gid := range req.GroupIDs {
			if err := s.repo.Group.AddMember(ctx, gid, user.UserID); err != nil {
				s.logger.Warn("加入班组失败", zap.String("group_id", gid), zap.Error(err))
			}
		}
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toUserResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 停用人员（保留考勤历史，不做物理删除）
func (s *userService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("停用人员失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── RegisterFace ──────────────────────

func (s *userService) RegisterFace(ctx context.Context, id string, image []byte) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.recog.Register(ctx, user.UserID, image); err != nil {
		s.logger.Error("注册人脸失败", zap.String("user_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("人脸注册成功", zap.String("user_id", id))
	return nil
}

// ────────────────────── 响应转换 ──────────────────────

func (s *userService) toUserResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:         u.UserID,
		FullName:   u.FullName,
		EmployeeID: u.EmployeeID,
		Phone:      u.Phone,
		Email:      u.Email,
		Role:       u.Role,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
	for i := range u.Groups {
		g := &u.Groups[i]
		resp.Groups = append(resp.Groups, dto.GroupBrief{
			ID:   g.GroupID,
			Name: g.Name,
			Code: g.Code,
		})
	}
	return resp
}
