package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/axmedovx0430/davomatai/backend/internal/dto"
	"github.com/axmedovx0430/davomatai/backend/internal/model"
	"github.com/axmedovx0430/davomatai/backend/internal/repository"
)

// ── 班组模块业务错误 ──

var (
	ErrGroupNotFound  = errors.New("班组不存在")
	ErrGroupNameTaken = errors.New("班组名称已存在")
)

// GroupService 班组业务接口
type GroupService interface {
	Create(ctx context.Context, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	GetByID(ctx context.Context, id string) (*dto.GroupResponse, error)
	List(ctx context.Context, page *dto.PaginationRequest) ([]dto.GroupResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

type groupService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGroupService 创建 GroupService 实例
func NewGroupService(repo *repository.Repository, logger *zap.Logger) GroupService {
	return &groupService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *groupService) Create(ctx context.Context, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	if _, err := s.repo.Group.GetByName(ctx, req.Name); err == nil {
		return nil, ErrGroupNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	group := &model.Group{
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		Faculty:      req.Faculty,
		Course:       req.Course,
		AcademicYear: req.AcademicYear,
		IsActive:     true,
	}
	if err := s.repo.Group.Create(ctx, group); err != nil {
		s.logger.Error("创建班组失败", zap.Error(err))
		return nil, err
	}
	return s.toGroupResponse(group), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *groupService) GetByID(ctx context.Context, id string) (*dto.GroupResponse, error) {
	group, err := s.repo.Group.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班组失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toGroupResponse(group), nil
}

// ────────────────────── List ──────────────────────

func (s *groupService) List(ctx context.Context, page *dto.PaginationRequest) ([]dto.GroupResponse, int64, error) {
	groups, total, err := s.repo.Group.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出班组失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		result = append(result, *s.toGroupResponse(&groups[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *groupService) Update(ctx context.Context, id string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	group, err := s.repo.Group.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if req.Name != nil && *req.Name != group.Name {
		if _, err := s.repo.Group.GetByName(ctx, *req.Name); err == nil {
			return nil, ErrGroupNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		group.Name = *req.Name
	}
	if req.Code != nil {
		group.Code = req.Code
	}
	if req.Description != nil {
		group.Description = req.Description
	}
	if req.Faculty != nil {
		group.Faculty = req.Faculty
	}
	if req.Course != nil {
		group.Course = req.Course
	}
	if req.AcademicYear != nil {
		group.AcademicYear = req.AcademicYear
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}

	if err := s.repo.Group.Update(ctx, group); err != nil {
		s.logger.Error("更新班组失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toGroupResponse(group), nil
}

// ────────────────────── Delete ──────────────────────

func (s *groupService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Group.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if err := s.repo.Group.Delete(ctx, id); err != nil {
		s.logger.Error("停用班组失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 成员管理 ──────────────────────

func (s *groupService) AddMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.repo.Group.AddMember(ctx, groupID, userID)
}

func (s *groupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	return s.repo.Group.RemoveMember(ctx, groupID, userID)
}

// ────────────────────── 响应转换 ──────────────────────

func (s *groupService) toGroupResponse(g *model.Group) *dto.GroupResponse {
	resp := &dto.GroupResponse{
		ID:           g.GroupID,
		Name:         g.Name,
		Code:         g.Code,
		Description:  g.Description,
		Faculty:      g.Faculty,
		Course:       g.Course,
		AcademicYear: g.AcademicYear,
		IsActive:     g.IsActive,
		MemberCount:  len(g.Users),
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
	}
	for i := range g.Users {
		u := &g.Users[i]
		resp.Members = append(resp.Members, dto.UserBrief{
			ID:         u.UserID,
			FullName:   u.FullName,
			EmployeeID: u.EmployeeID,
		})
	}
	return resp
}
