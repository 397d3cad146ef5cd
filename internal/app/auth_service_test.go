package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachassist/internal/model"
)

type memoryUsers struct {
	byID map[uint]*model.User
	next uint
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[uint]*model.User{}}
}

func (m *memoryUsers) Create(user *model.User) error {
	m.next++
	user.ID = m.next
	stored := *user
	m.byID[user.ID] = &stored
	return nil
}

func (m *memoryUsers) find(match func(*model.User) bool) (*model.User, error) {
	for _, u := range m.byID {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByUsername(username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username })
}

func (m *memoryUsers) GetByEmail(email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByID(id uint) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id })
}

func (m *memoryUsers) UpdateDisplayName(id uint, displayName string) (bool, error) {
	u, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	u.DisplayName = displayName
	return true, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newMemoryUsers(), "secret", time.Hour)

	res, err := svc.Register(RegisterInput{Username: "ada", Email: "Ada@Example.edu", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ada", res.User.DisplayName)
	assert.Equal(t, "ada@example.edu", res.User.Email)

	_, err = svc.Register(RegisterInput{Username: "ada", Email: "x@example.edu", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, err = svc.Register(RegisterInput{Username: "bob", Email: "not-an-email", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Login(LoginInput{Username: "ada", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
	login, err := svc.Login(LoginInput{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
}

func TestUpdateDisplayName(t *testing.T) {
	svc := NewAuthService(newMemoryUsers(), "secret", time.Hour)
	res, err := svc.Register(RegisterInput{Username: "ada", Email: "ada@example.edu", Password: "correct horse"})
	require.NoError(t, err)

	user, err := svc.UpdateDisplayName(res.User.ID, "  Prof. Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "Prof. Lovelace", user.DisplayName)

	_, err = svc.UpdateDisplayName(res.User.ID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateDisplayName(res.User.ID+1, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
