package tenant

import (
	"context"
	"testing"
	"time"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"
	"chatflow-service/internal/repository"
	"chatflow-service/pkg/jwtutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func claimsFor(subject string) *jwtutil.UserClaims {
	return &jwtutil.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func TestEnterpriseIDSkipsUnscopedEntities(t *testing.T) {
	db, _ := newMockDB(t)
	resolver := NewResolver(repository.NewProfileRepository(db))

	id, err := resolver.EnterpriseID(context.Background(), model.FlowDescriptor, nil)
	require.NoError(t, err)
	require.Empty(t, id)
}

func TestEnterpriseIDResolvesFromProfile(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := NewResolver(repository.NewProfileRepository(db))

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "enterprise_id"}).
			AddRow("p1", time.Now(), nil, "e1"))
	mock.ExpectQuery(`SELECT \* FROM "enterprises" WHERE "enterprises"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone"}).AddRow("e1", "acme", "999"))

	id, err := resolver.EnterpriseID(context.Background(), model.ClientDescriptor, claimsFor("p1"))
	require.NoError(t, err)
	require.Equal(t, "e1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnterpriseIDWithoutClaimsFailsClosed(t *testing.T) {
	db, _ := newMockDB(t)
	resolver := NewResolver(repository.NewProfileRepository(db))

	_, err := resolver.EnterpriseID(context.Background(), model.ClientDescriptor, nil)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.Unauthorized, appErr.Kind)
}

func TestEnterpriseIDUnknownSubjectFailsClosed(t *testing.T) {
	db, mock := newMockDB(t)
	resolver := NewResolver(repository.NewProfileRepository(db))

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := resolver.EnterpriseID(context.Background(), model.ClientDescriptor, claimsFor("ghost"))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.Unauthorized, appErr.Kind)
	require.Equal(t, "No profile found for the authenticated subject", appErr.Message)
}
