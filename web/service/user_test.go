package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateAdminOnlyOnce(t *testing.T) {
	setup()
	defer teardown()

	service := UserService{}

	exists, err := service.HasSuperUser()
	assert.NoError(t, err)
	assert.False(t, exists)

	admin, err := service.CreateAdmin("Admin", "admin", "secret")
	assert.NoError(t, err)
	assert.Equal(t, "SU", admin.Role)
	assert.NotEqual(t, "secret", admin.Password)

	// a second bootstrap attempt is rejected
	_, err = service.CreateAdmin("Other", "other", "secret")
	assert.Equal(t, ErrAdminExists, err)
}

func TestCheckUser(t *testing.T) {
	setup()
	defer teardown()

	service := UserService{}

	_, err := service.CreateAdmin("Admin", "admin", "secret")
	assert.NoError(t, err)

	assert.NotNil(t, service.CheckUser("admin", "secret"))
	assert.Nil(t, service.CheckUser("admin", "wrong"))
	assert.Nil(t, service.CheckUser("ghost", "secret"))
}

func TestCreateUserValidation(t *testing.T) {
	setup()
	defer teardown()

	service := UserService{}

	_, err := service.CreateUser("", "", "secret", "")
	assert.Error(t, err)
	_, err = service.CreateUser("", "bob", "", "")
	assert.Error(t, err)

	user, err := service.CreateUser("Bob", "bob", "secret", "")
	assert.NoError(t, err)
	assert.Equal(t, "USER", user.Role)
}
