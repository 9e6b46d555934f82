package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	staffPerPage      = 8
	minPasswordLength = 6
)

type StaffService struct {
	db  *gorm.DB
	log *ActionLogger
}

func NewStaffService(db *gorm.DB, log *ActionLogger) *StaffService {
	return &StaffService{db: db, log: log}
}

type StaffInput struct {
	FullName      string
	Username      string
	Password      string
	Phone         string
	Email         string
	Address       string
	Role          string
	AccountStatus string
}

type StaffFilter struct {
	AccountStatus string
	Role          string
	Search        string
	Page          int
}

// Authenticate checks credentials of an active account and puts the staff
// member on duty.
func (s *StaffService) Authenticate(ctx context.Context, username, password, ip string) (*models.Staff, error) {
	db := s.db.WithContext(ctx)

	var staff models.Staff
	if err := db.Where("username = ?", strings.TrimSpace(username)).First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if staff.AccountStatus != models.AccountActive {
		return nil, ErrAccountInactive
	}

	now := time.Now()
	if err := db.Model(&staff).Updates(map[string]interface{}{
		"shift_status":  models.ShiftOnDuty,
		"last_login_at": now,
	}).Error; err != nil {
		return nil, err
	}
	staff.ShiftStatus = models.ShiftOnDuty
	staff.LastLoginAt = &now

	actor := Actor{StaffID: staff.ID, Name: staff.FullName, Role: staff.Role, IP: ip}
	s.log.Record(ctx, actor, models.ActionLogin, fmt.Sprintf("%s signed in", staff.FullName))
	return &staff, nil
}

// SignOut takes the staff member off duty. reason is appended to the log entry.
func (s *StaffService) SignOut(ctx context.Context, actor Actor, reason string) error {
	if err := s.db.WithContext(ctx).Model(&models.Staff{}).
		Where("id = ?", actor.StaffID).
		Update("shift_status", models.ShiftOffDuty).Error; err != nil {
		return err
	}
	msg := fmt.Sprintf("%s signed out", actor.Name)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	s.log.Record(ctx, actor, models.ActionLogout, msg)
	return nil
}

func (s *StaffService) Get(ctx context.Context, id uint) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).First(&staff, id).Error; err != nil {
		return nil, notFound(err, ErrStaffNotFound)
	}
	return &staff, nil
}

func (s *StaffService) List(ctx context.Context, f StaffFilter) ([]models.Staff, utils.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Staff{})
	if f.AccountStatus != "" {
		q = q.Where("account_status = ?", f.AccountStatus)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Search != "" {
		like := utils.LikePattern(f.Search)
		q = q.Where("(LOWER(full_name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ? OR LOWER(address) LIKE ?)",
			like, like, like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}
	page := utils.NewPage(f.Page, staffPerPage, total)

	var staff []models.Staff
	err := q.Order("full_name ASC").Offset(page.Offset()).Limit(page.PerPage).Find(&staff).Error
	return staff, page, err
}

func (s *StaffService) Create(ctx context.Context, actor Actor, in StaffInput) (*models.Staff, error) {
	in, err := validateStaff(in, true)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	staff := models.Staff{
		FullName:      in.FullName,
		Username:      in.Username,
		PasswordHash:  hash,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		Role:          in.Role,
		AccountStatus: in.AccountStatus,
		ShiftStatus:   models.ShiftOffDuty,
	}
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureUniqueUsername(tx, staff.Username, 0); err != nil {
			return err
		}
		return tx.Create(&staff).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionStaffAdd, fmt.Sprintf("Staff %s (%s) added as %s", staff.FullName, staff.Username, staff.Role))
	return &staff, nil
}

// Update changes profile fields; the password only changes when a new one is given.
func (s *StaffService) Update(ctx context.Context, actor Actor, id uint, in StaffInput) (*models.Staff, error) {
	in, err := validateStaff(in, false)
	if err != nil {
		return nil, err
	}

	var staff models.Staff
	err = runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&staff, id).Error; err != nil {
			return notFound(err, ErrStaffNotFound)
		}
		if err := ensureUniqueUsername(tx, in.Username, staff.ID); err != nil {
			return err
		}

		staff.FullName = in.FullName
		staff.Username = in.Username
		staff.Phone = in.Phone
		staff.Email = in.Email
		staff.Address = in.Address
		staff.Role = in.Role
		staff.AccountStatus = in.AccountStatus
		columns := []interface{}{"username", "phone", "email", "address", "role", "account_status"}
		if in.Password != "" {
			hash, err := hashPassword(in.Password)
			if err != nil {
				return err
			}
			staff.PasswordHash = hash
			columns = append(columns, "password_hash")
		}
		if staff.AccountStatus != models.AccountActive {
			staff.ShiftStatus = models.ShiftOffDuty
			columns = append(columns, "shift_status")
		}
		return tx.Model(&staff).Select("full_name", columns...).Updates(&staff).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Record(ctx, actor, models.ActionStaffUpdate, fmt.Sprintf("Staff #%d updated: %s", staff.ID, staff.FullName))
	return &staff, nil
}

// Delete removes a staff member with no history. Anyone referenced by orders,
// payments or expenses is marked as left and taken off duty instead; the bool
// result reports that case.
func (s *StaffService) Delete(ctx context.Context, actor Actor, id uint) (bool, error) {
	if id == actor.StaffID {
		return false, ErrSelfDelete
	}

	var (
		staff models.Staff
		soft  bool
	)
	err := runTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.First(&staff, id).Error; err != nil {
			return notFound(err, ErrStaffNotFound)
		}

		for _, ref := range []struct {
			model  interface{}
			column string
		}{
			{&models.Order{}, "waiter_id"},
			{&models.Payment{}, "staff_id"},
			{&models.Expense{}, "staff_id"},
		} {
			var n int64
			if err := tx.Model(ref.model).Where(ref.column+" = ?", staff.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				soft = true
				break
			}
		}

		if soft {
			return tx.Model(&staff).Updates(map[string]interface{}{
				"account_status": models.AccountLeft,
				"shift_status":   models.ShiftOffDuty,
			}).Error
		}

		if err := tx.Model(&models.ActionLog{}).
			Where("staff_id = ?", staff.ID).
			Update("staff_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&staff).Error
	})
	if err != nil {
		return false, err
	}

	msg := fmt.Sprintf("Staff %s deleted", staff.FullName)
	if soft {
		msg = fmt.Sprintf("Staff %s marked as left (has history)", staff.FullName)
	}
	s.log.Record(ctx, actor, models.ActionStaffDelete, msg)
	return soft, nil
}

// HashPassword is exported for seeding.
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func ensureUniqueUsername(tx *gorm.DB, username string, selfID uint) error {
	var n int64
	if err := tx.Model(&models.Staff{}).
		Where("LOWER(username) = ? AND id <> ?", strings.ToLower(username), selfID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrUsernameTaken
	}
	return nil
}

func validateStaff(in StaffInput, creating bool) (StaffInput, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)

	name, err := validateName("full_name", in.FullName)
	if err != nil {
		return in, err
	}
	in.FullName = name

	switch {
	case in.Username == "":
		return in, invalid("username", "is required")
	case len(in.Username) > 50 || strings.ContainsAny(in.Username, " \t"):
		return in, invalid("username", "must be at most 50 characters without spaces")
	}

	if creating && in.Password == "" {
		return in, invalid("password", "is required")
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return in, invalid("password", "must be at least %d characters", minPasswordLength)
	}

	if !models.IsValidRole(in.Role) {
		return in, invalid("role", "must be %s or %s", models.RoleWaiter, models.RoleManager)
	}
	if in.AccountStatus == "" {
		in.AccountStatus = models.AccountActive
	}
	if !models.IsValidAccountStatus(in.AccountStatus) {
		return in, invalid("account_status", "unknown account status %q", in.AccountStatus)
	}
	return in, nil
}
