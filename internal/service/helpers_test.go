package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/finboard/internal/db/dbtest"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
)

type testEnv struct {
	db           *sqlx.DB
	hub          *realtime.Hub
	users        repository.UserRepository
	profiles     repository.ProfileRepository
	transactions repository.TransactionRepository
	goals        repository.GoalRepository
	events       repository.EventRepository
	integrations repository.IntegrationRepository
	email        *EmailService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	return &testEnv{
		db:           conn,
		hub:          realtime.NewHub(),
		users:        repository.NewUserRepository(conn),
		profiles:     repository.NewProfileRepository(conn),
		transactions: repository.NewTransactionRepository(conn),
		goals:        repository.NewGoalRepository(conn),
		events:       repository.NewEventRepository(conn),
		integrations: repository.NewIntegrationRepository(conn),
		email:        NewEmailService("", "noreply@example.com", "http://localhost:8090", "Finboard", true),
	}
}

// createUser inserts a user with a profile of the given role.
func (e *testEnv) createUser(t *testing.T, email, role string) (*model.User, *model.Profile) {
	t.Helper()
	user := &model.User{ID: uuid.New().String(), Email: email, CreatedAt: time.Now()}
	require.NoError(t, e.users.Create(user))

	profile := &model.Profile{UserID: user.ID, FullName: "Test User", Role: role}
	require.NoError(t, e.profiles.Create(profile))
	return user, profile
}

// recordChanges collects every change published for userID.
func (e *testEnv) recordChanges(t *testing.T, userID string) *[]realtime.Change {
	t.Helper()
	var changes []realtime.Change
	unsub := e.hub.Subscribe(userID, realtime.AllTables, func(c realtime.Change) {
		changes = append(changes, c)
	})
	t.Cleanup(unsub)
	return &changes
}
