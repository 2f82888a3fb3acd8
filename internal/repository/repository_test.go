package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/templui/finboard/internal/db/dbtest"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/repository"
)

type RepositorySuite struct {
	suite.Suite
	db     *sqlx.DB
	users  repository.UserRepository
	userID string
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.db = dbtest.Open(s.T())
	s.users = repository.NewUserRepository(s.db)

	s.userID = uuid.New().String()
	s.Require().NoError(s.users.Create(&model.User{
		ID:        s.userID,
		Email:     "Ana@Example.com",
		CreatedAt: time.Now(),
	}))
}

func (s *RepositorySuite) TestUserEmailIsCaseInsensitiveAndUnique() {
	user, err := s.users.ByEmail("ana@example.com")
	s.Require().NoError(err)
	s.Equal(s.userID, user.ID)
	s.False(user.HasPassword())

	err = s.users.Create(&model.User{ID: uuid.New().String(), Email: "ANA@example.com", CreatedAt: time.Now()})
	s.ErrorIs(err, repository.ErrDuplicateEmail)

	_, err = s.users.ByID("missing")
	s.ErrorIs(err, repository.ErrUserNotFound)
}

func (s *RepositorySuite) TestUpdatePassword() {
	s.Require().NoError(s.users.UpdatePassword(s.userID, "hash"))

	user, err := s.users.ByID(s.userID)
	s.Require().NoError(err)
	s.True(user.HasPassword())

	s.ErrorIs(s.users.UpdatePassword("missing", "hash"), repository.ErrUserNotFound)
}

func (s *RepositorySuite) TestProfileLifecycle() {
	profiles := repository.NewProfileRepository(s.db)
	s.Require().NoError(profiles.Create(&model.Profile{
		UserID:             s.userID,
		FullName:           "Ana Souza",
		MustChangePassword: true,
	}))

	profile, err := profiles.ByUserID(s.userID)
	s.Require().NoError(err)
	s.Equal(model.RoleUser, profile.Role)
	s.True(profile.MustChangePassword)

	profile.FullName = "Ana S."
	profile.Timezone = "Asia/Tokyo"
	profile.Role = model.RoleAdmin
	s.Require().NoError(profiles.Update(profile))
	s.Require().NoError(profiles.SetMustChangePassword(s.userID, false))

	profile, err = profiles.ByUserID(s.userID)
	s.Require().NoError(err)
	s.Equal("Ana S.", profile.FullName)
	s.Equal("Asia/Tokyo", profile.Timezone)
	s.Equal(model.RoleUser, profile.Role, "update must not change the role")
	s.False(profile.MustChangePassword)

	_, err = profiles.ByUserID("missing")
	s.ErrorIs(err, repository.ErrProfileNotFound)
}

func (s *RepositorySuite) TestTransactionFilters() {
	txs := repository.NewTransactionRepository(s.db)
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	create := func(amount, typ, category string, date time.Time) {
		s.Require().NoError(txs.Create(&model.Transaction{
			ID:        uuid.New().String(),
			UserID:    s.userID,
			Amount:    decimal.RequireFromString(amount),
			Type:      typ,
			Category:  category,
			Date:      date,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}))
	}
	create("1500.50", model.TransactionTypeIncome, "salary", base)
	create("89.90", model.TransactionTypeExpense, "food", base.AddDate(0, 0, 1))
	create("40.10", model.TransactionTypeExpense, "food", base.AddDate(0, -1, 0))

	all, err := txs.Transactions(s.userID, repository.TransactionFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)
	s.True(all[0].Date.After(all[1].Date), "newest first")

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	march, err := txs.Transactions(s.userID, repository.TransactionFilter{From: &from, To: &to, Category: "food"})
	s.Require().NoError(err)
	s.Require().Len(march, 1)
	s.True(decimal.RequireFromString("89.90").Equal(march[0].Amount))

	categories, err := txs.Categories(s.userID)
	s.Require().NoError(err)
	s.Equal([]string{"food", "salary"}, categories)

	s.ErrorIs(txs.Delete("someone-else", march[0].ID), repository.ErrTransactionNotFound)
	s.NoError(txs.Delete(s.userID, march[0].ID))
}

func (s *RepositorySuite) TestGoalsSortByDeadline() {
	goals := repository.NewGoalRepository(s.db)
	soon := time.Now().AddDate(0, 1, 0)
	later := time.Now().AddDate(1, 0, 0)

	for _, g := range []struct {
		title    string
		deadline *time.Time
	}{{"open", nil}, {"later", &later}, {"soon", &soon}} {
		s.Require().NoError(goals.Create(&model.Goal{
			ID:           uuid.New().String(),
			UserID:       s.userID,
			Title:        g.title,
			TargetAmount: decimal.NewFromInt(1000),
			Deadline:     g.deadline,
			Icon:         model.DefaultGoalIcon,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}))
	}

	list, err := goals.Goals(s.userID, repository.GoalSortDeadline)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("soon", list[0].Title)
	s.Equal("later", list[1].Title)
	s.Equal("open", list[2].Title)
	s.Nil(list[2].Deadline)
}

func (s *RepositorySuite) TestEventsOverlappingRange() {
	events := repository.NewEventRepository(s.db)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	add := func(title string, start, end time.Time) {
		s.Require().NoError(events.Create(&model.CalendarEvent{
			ID:        uuid.New().String(),
			UserID:    s.userID,
			Title:     title,
			Start:     start,
			End:       end,
			Color:     model.DefaultEventColor,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}))
	}
	add("before", day.Add(-3*time.Hour), day.Add(-2*time.Hour))
	add("spans midnight", day.Add(-1*time.Hour), day.Add(1*time.Hour))
	add("inside", day.Add(9*time.Hour), day.Add(10*time.Hour))
	add("after", day.Add(25*time.Hour), day.Add(26*time.Hour))

	list, err := events.Events(s.userID, day, day.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("spans midnight", list[0].Title)
	s.Equal("inside", list[1].Title)
	s.Equal(model.EventOriginLocal, list[1].Origin)
	s.False(list[1].ReadOnly)

	all, err := events.All(s.userID)
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	s.Equal("before", all[0].Title)
	s.Equal("after", all[3].Title)

	none, err := events.All("someone-else")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *RepositorySuite) TestIntegrationUpsertKeepsRefreshToken() {
	integrations := repository.NewIntegrationRepository(s.db)
	refresh := "refresh-1"
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	s.Require().NoError(integrations.Upsert(&model.CalendarIntegration{
		UserID:       s.userID,
		AccessToken:  "access-1",
		RefreshToken: &refresh,
		ExpiresAt:    expires,
	}))
	s.Require().NoError(integrations.Upsert(&model.CalendarIntegration{
		UserID:      s.userID,
		AccessToken: "access-2",
		ExpiresAt:   expires.Add(time.Hour),
	}))

	stored, err := integrations.ByUserID(s.userID)
	s.Require().NoError(err)
	s.Equal("access-2", stored.AccessToken)
	s.Require().NotNil(stored.RefreshToken)
	s.Equal("refresh-1", *stored.RefreshToken)
	s.True(stored.ExpiresAt.Equal(expires.Add(time.Hour)))

	var rows int
	s.Require().NoError(s.db.Get(&rows, `SELECT COUNT(*) FROM google_integrations WHERE user_id = $1`, s.userID))
	s.Equal(1, rows)

	s.Require().NoError(integrations.Delete(s.userID))
	_, err = integrations.ByUserID(s.userID)
	s.ErrorIs(err, repository.ErrIntegrationNotFound)
}

func (s *RepositorySuite) TestAvatarFiles() {
	files := repository.NewFileRepository(s.db)
	older := &model.File{
		ID: uuid.New().String(), UserID: s.userID, Type: model.FileTypeAvatar,
		Filename: "a.png", OriginalName: "me.png", MimeType: "image/png", Size: 10,
		StoragePath: "public/avatars/a.png", CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := *older
	newer.ID = uuid.New().String()
	newer.Filename = "b.png"
	newer.CreatedAt = time.Now()

	s.Require().NoError(files.Create(older))
	s.Require().NoError(files.Create(&newer))

	latest, err := files.LatestByType(s.userID, model.FileTypeAvatar)
	s.Require().NoError(err)
	s.Equal(newer.ID, latest.ID)

	s.Require().NoError(files.Delete(older.ID))
	s.ErrorIs(files.Delete(older.ID), repository.ErrFileNotFound)
}
