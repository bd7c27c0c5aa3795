package service

import (
	"errors"
	"time"

	"github.com/vaiolabs/vaio-board/database"
	"github.com/vaiolabs/vaio-board/database/model"
	"github.com/vaiolabs/vaio-board/logger"
	"github.com/vaiolabs/vaio-board/util/crypto"

	"gorm.io/gorm"
)

type UserService struct{}

// HasSuperUser reports whether a bootstrap admin already exists.
func (s *UserService) HasSuperUser() (bool, error) {
	db := database.GetDB()

	var count int64
	err := db.Model(model.User{}).
		Where("role = ?", "SU").
		Count(&count).
		Error
	return count > 0, err
}

// CreateAdmin creates the bootstrap SU account. It fails once one exists.
func (s *UserService) CreateAdmin(name, username, password string) (*model.User, error) {
	if username == "" {
		return nil, errors.New("username can not be empty")
	} else if password == "" {
		return nil, errors.New("password can not be empty")
	}

	exists, err := s.HasSuperUser()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAdminExists
	}

	hashedPassword, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:      name,
		Username:  username,
		Password:  hashedPassword,
		Role:      "SU",
		Active:    true,
		CreatedAt: time.Now(),
	}
	db := database.GetDB()
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ErrAdminExists signals that set-admin was called after bootstrap.
var ErrAdminExists = errors.New("an admin user already exists")

func (s *UserService) CheckUser(username string, password string) *model.User {
	db := database.GetDB()

	user := &model.User{}

	err := db.Model(model.User{}).
		Where("username = ? and active = ?", username, true).
		First(user).
		Error
	if err == gorm.ErrRecordNotFound {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil
	}

	return user
}

func (s *UserService) GetUsers() ([]*model.User, error) {
	db := database.GetDB()

	var users []*model.User
	err := db.Model(model.User{}).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) CreateUser(name, username, password, role string) (*model.User, error) {
	if username == "" {
		return nil, errors.New("username can not be empty")
	} else if password == "" {
		return nil, errors.New("password can not be empty")
	}
	if role == "" {
		role = "USER"
	}

	hashedPassword, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:      name,
		Username:  username,
		Password:  hashedPassword,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now(),
	}
	db := database.GetDB()
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(id int) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("id = ?", id).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}
