package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ApprovalResult is returned by a successful application approval
type ApprovalResult struct {
	User *models.User      `json:"user"`
	Team *models.BakerTeam `json:"team"`
}

// TeamService manages baker teams and the applications customers send to join them
type TeamService struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewTeamService creates a TeamService
func NewTeamService(db *gorm.DB, log logrus.FieldLogger) *TeamService {
	return &TeamService{db: db, log: log, now: time.Now}
}

// ListMainBakers returns every main baker, sorted by name
func (s *TeamService) ListMainBakers(ctx context.Context) ([]models.User, error) {
	var bakers []models.User
	err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleMainBaker).
		Order("full_name ASC, id ASC").
		Find(&bakers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list main bakers: %w", err)
	}
	return bakers, nil
}

// GetTeamForMainBaker returns the junior bakers currently in the main baker's team
func (s *TeamService) GetTeamForMainBaker(ctx context.Context, mainBakerID uint) ([]models.User, error) {
	if err := requireUserRole(ctx, s.db, mainBakerID, models.RoleMainBaker); err != nil {
		if errors.Is(err, ErrInvalidBaker) {
			return nil, ErrUserNotFound.WithMessage("Main baker not found")
		}
		return nil, err
	}

	var members []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN baker_teams ON baker_teams.junior_baker_id = users.id").
		Where("baker_teams.main_baker_id = ? AND baker_teams.is_active = ? AND users.role = ?",
			mainBakerID, true, models.RoleJuniorBaker).
		Order("baker_teams.assigned_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load team of main baker %d: %w", mainBakerID, err)
	}
	return members, nil
}

// CurrentMainBaker returns the main baker whose team the junior baker is active in
func (s *TeamService) CurrentMainBaker(ctx context.Context, juniorBakerID uint) (*models.User, error) {
	var team models.BakerTeam
	err := s.db.WithContext(ctx).
		Preload("MainBaker").
		Where("junior_baker_id = ? AND is_active = ?", juniorBakerID, true).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, fmt.Errorf("failed to load team of junior baker %d: %w", juniorBakerID, err)
	}
	return team.MainBaker, nil
}

// IsActiveMember reports whether the junior baker is active in the main baker's team
func (s *TeamService) IsActiveMember(ctx context.Context, mainBakerID, juniorBakerID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.BakerTeam{}).
		Where("main_baker_id = ? AND junior_baker_id = ? AND is_active = ?", mainBakerID, juniorBakerID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check team membership: %w", err)
	}
	return count > 0, nil
}

// SubmitApplication records the caller's request to join mainBakerID's team as a junior
// baker. A user can have only one pending application.
func (s *TeamService) SubmitApplication(ctx context.Context, p Principal, mainBakerID uint, reason string) (*models.BakerApplication, error) {
	if !p.HasRole(models.RoleCustomer, models.RoleJuniorBaker) {
		return nil, ErrForbidden.WithMessage("Only customers and junior bakers can apply to a team")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrValidation.WithMessage("A reason is required")
	}
	if mainBakerID == p.UserID {
		return nil, ErrInvalidBaker
	}
	if err := requireUserRole(ctx, s.db, mainBakerID, models.RoleMainBaker); err != nil {
		return nil, err
	}

	var pending int64
	err := s.db.WithContext(ctx).Model(&models.BakerApplication{}).
		Where("user_id = ? AND status = ?", p.UserID, models.ApplicationStatusPending).
		Count(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check pending applications: %w", err)
	}
	if pending > 0 {
		return nil, ErrDuplicateApplication
	}

	application := models.BakerApplication{
		UserID:        p.UserID,
		MainBakerID:   mainBakerID,
		CurrentRole:   p.Role,
		RequestedRole: models.RoleJuniorBaker,
		Reason:        reason,
		Status:        models.ApplicationStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"application_id": application.ID,
		"user_id":        p.UserID,
		"main_baker_id":  mainBakerID,
	}).Info("Baker application submitted")

	return s.loadApplication(ctx, s.db, application.ID)
}

// ApproveApplication promotes the applicant to junior baker and places them in the main
// baker's team. The status change, the role change and the team row commit together, and
// only the first of several concurrent approvals succeeds.
func (s *TeamService) ApproveApplication(ctx context.Context, p Principal, applicationID uint) (*ApprovalResult, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden.WithMessage("Only admins can approve applications")
	}

	var result ApprovalResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		application, err := s.loadApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}

		now := s.now()
		res := tx.Model(&models.BakerApplication{}).
			Where("id = ? AND status = ?", applicationID, models.ApplicationStatusPending).
			Updates(map[string]interface{}{
				"status":      models.ApplicationStatusApproved,
				"reviewed_by": p.UserID,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to approve application: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		if err := requireUserRole(ctx, tx, application.MainBakerID, models.RoleMainBaker); err != nil {
			return err
		}

		var applicant models.User
		if err := tx.First(&applicant, application.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load applicant: %w", err)
		}
		if applicant.Role != models.RoleCustomer && applicant.Role != models.RoleJuniorBaker {
			return ErrApplicantRole
		}

		if err := tx.Model(&applicant).Update("role", models.RoleJuniorBaker).Error; err != nil {
			return fmt.Errorf("failed to promote applicant: %w", err)
		}

		err = tx.Model(&models.BakerTeam{}).
			Where("junior_baker_id = ? AND is_active = ?", applicant.ID, true).
			Updates(map[string]interface{}{"is_active": false, "deactivated_at": now}).Error
		if err != nil {
			return fmt.Errorf("failed to close previous team: %w", err)
		}

		team := models.BakerTeam{
			MainBakerID:   application.MainBakerID,
			JuniorBakerID: applicant.ID,
			IsActive:      true,
			AssignedAt:    now,
		}
		if err := tx.Create(&team).Error; err != nil {
			return fmt.Errorf("failed to create team membership: %w", err)
		}

		applicant.Role = models.RoleJuniorBaker
		result = ApprovalResult{User: &applicant, Team: &team}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"application_id": applicationID,
		"user_id":        result.User.ID,
		"main_baker_id":  result.Team.MainBakerID,
		"admin_id":       p.UserID,
	}).Info("Baker application approved")

	return &result, nil
}

// RejectApplication closes a pending application without changing the applicant
func (s *TeamService) RejectApplication(ctx context.Context, p Principal, applicationID uint, reason *string) (*models.BakerApplication, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden.WithMessage("Only admins can reject applications")
	}
	if _, err := s.loadApplication(ctx, s.db, applicationID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":      models.ApplicationStatusRejected,
		"reviewed_by": p.UserID,
		"reviewed_at": s.now(),
	}
	if reason != nil && strings.TrimSpace(*reason) != "" {
		updates["reject_reason"] = strings.TrimSpace(*reason)
	}

	res := s.db.WithContext(ctx).Model(&models.BakerApplication{}).
		Where("id = ? AND status = ?", applicationID, models.ApplicationStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reject application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyProcessed
	}

	s.log.WithFields(logrus.Fields{"application_id": applicationID, "admin_id": p.UserID}).Info("Baker application rejected")
	return s.loadApplication(ctx, s.db, applicationID)
}

// ListApplications returns applications for review. Admins see all of them, main bakers
// see the ones addressed to their team.
func (s *TeamService) ListApplications(ctx context.Context, p Principal, status string) ([]models.BakerApplication, error) {
	query := s.db.WithContext(ctx).Preload("Applicant").Preload("MainBaker")
	switch p.Role {
	case models.RoleAdmin:
	case models.RoleMainBaker:
		query = query.Where("main_baker_id = ?", p.UserID)
	default:
		return nil, ErrForbidden.WithMessage("Only admins and main bakers can review applications")
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var applications []models.BakerApplication
	if err := query.Order("created_at DESC, id DESC").Find(&applications).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// MyApplications returns the caller's own applications, newest first
func (s *TeamService) MyApplications(ctx context.Context, p Principal) ([]models.BakerApplication, error) {
	var applications []models.BakerApplication
	err := s.db.WithContext(ctx).
		Preload("MainBaker").
		Where("user_id = ?", p.UserID).
		Order("created_at DESC, id DESC").
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// RemoveFromTeam ends a junior baker's active team membership. The junior keeps their role.
func (s *TeamService) RemoveFromTeam(ctx context.Context, p Principal, juniorBakerID uint) error {
	var team models.BakerTeam
	err := s.db.WithContext(ctx).
		Where("junior_baker_id = ? AND is_active = ?", juniorBakerID, true).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to load team membership: %w", err)
	}
	if !p.IsAdmin() && team.MainBakerID != p.UserID {
		return ErrForbidden.WithMessage("Only the team's main baker or an admin can remove members")
	}

	res := s.db.WithContext(ctx).Model(&models.BakerTeam{}).
		Where("id = ? AND is_active = ?", team.ID, true).
		Updates(map[string]interface{}{"is_active": false, "deactivated_at": s.now()})
	if res.Error != nil {
		return fmt.Errorf("failed to remove team member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTeamMemberNotFound
	}

	s.log.WithFields(logrus.Fields{
		"junior_baker_id": juniorBakerID,
		"main_baker_id":   team.MainBakerID,
		"actor_id":        p.UserID,
	}).Info("Junior baker removed from team")
	return nil
}

func (s *TeamService) loadApplication(ctx context.Context, db *gorm.DB, id uint) (*models.BakerApplication, error) {
	var application models.BakerApplication
	err := db.WithContext(ctx).Preload("Applicant").Preload("MainBaker").First(&application, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load application %d: %w", id, err)
	}
	return &application, nil
}
