package repository

import (
	"context"
	"testing"
	"time"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const (
	testFlowID = "5bfa2ab2-7d76-4bd4-8a0f-9a1caadeed9b"
	testPlanID = "c2e4f8b8-2f6b-4a55-92f4-4a6cfa0cf9f2"
)

func TestCreateMessageRequiresFlow(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewMessageRepository(db)

	_, err := repo.CreateMessage(context.Background(), &model.Message{Body: "hi"}, "", "e1")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.Validation, appErr.Kind)
	require.Equal(t, "Flow not provided", appErr.Message)
}

func TestCreateMessageRejectsMalformedFlowID(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewMessageRepository(db)

	_, err := repo.CreateMessage(context.Background(), &model.Message{Body: "hi"}, "not-a-uuid", "e1")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.Validation, appErr.Kind)
	require.Equal(t, "Invalid flow ID format", appErr.Message)
}

func TestCreateMessageRollsBackWhenFlowOutsidePlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "enterprises" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "phone", "connected", "pricing_plan_id"}).
			AddRow("e1", time.Now(), nil, "acme", "999", true, testPlanID))
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans" WHERE "pricing_plans"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price"}))
	mock.ExpectQuery(`SELECT \* FROM "flows" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "description"}).
			AddRow(testFlowID, time.Now(), nil, "greeting", "says hi"))
	// no plan associations for this flow, so the membership check fails
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans_flows" WHERE "pricing_plans_flows"\."flow_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"pricing_plan_id", "flow_id"}))
	mock.ExpectRollback()

	_, err := repo.CreateMessage(context.Background(), &model.Message{NumOrder: 1, Body: "hi"}, testFlowID, "e1")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.Validation, appErr.Kind)
	require.Equal(t, "The flow does not belong to the enterprise's contracted plan", appErr.Message)

	// nothing was inserted
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessageMissingFlowRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "enterprises" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "phone", "connected", "pricing_plan_id"}).
			AddRow("e1", time.Now(), nil, "acme", "999", true, testPlanID))
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans" WHERE "pricing_plans"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price"}))
	mock.ExpectQuery(`SELECT \* FROM "flows" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.CreateMessage(context.Background(), &model.Message{Body: "hi"}, testFlowID, "e1")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.NotFound, appErr.Kind)
	require.Equal(t, "Flow not found", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessageEnterpriseWithoutPlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "enterprises" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "phone", "connected", "pricing_plan_id"}).
			AddRow("e1", time.Now(), nil, "acme", "999", true, nil))
	mock.ExpectQuery(`SELECT \* FROM "flows" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "description"}).
			AddRow(testFlowID, time.Now(), nil, "greeting", "says hi"))
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans_flows" WHERE "pricing_plans_flows"\."flow_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"pricing_plan_id", "flow_id"}))
	mock.ExpectRollback()

	_, err := repo.CreateMessage(context.Background(), &model.Message{Body: "hi"}, testFlowID, "e1")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperr.Validation, appErr.Kind)
	require.Equal(t, "Enterprise does not have an assigned plan", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessageInsertsWhenFlowInPlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "enterprises" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "phone", "connected", "pricing_plan_id"}).
			AddRow("e1", time.Now(), nil, "acme", "999", true, testPlanID))
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans" WHERE "pricing_plans"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price"}).
			AddRow(testPlanID, "pro", "full access", 99.0))
	mock.ExpectQuery(`SELECT \* FROM "flows" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "name", "description"}).
			AddRow(testFlowID, time.Now(), nil, "greeting", "says hi"))
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans_flows" WHERE "pricing_plans_flows"\."flow_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"pricing_plan_id", "flow_id"}).
			AddRow(testPlanID, testFlowID))
	mock.ExpectQuery(`SELECT \* FROM "pricing_plans" WHERE "pricing_plans"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price"}).
			AddRow(testPlanID, "pro", "full access", 99.0))
	mock.ExpectExec(`INSERT INTO "messages"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := repo.CreateMessage(context.Background(), &model.Message{NumOrder: 1, Body: "hi"}, testFlowID, "e1")
	require.NoError(t, err)
	require.Equal(t, "e1", msg.EnterpriseID)
	require.Equal(t, testFlowID, msg.FlowID)
	require.NoError(t, mock.ExpectationsWereMet())
}
