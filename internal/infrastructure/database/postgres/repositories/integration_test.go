//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/domain/specialist"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
)

func startPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "simple",
			"POSTGRES_PASSWORD": "simple",
			"POSTGRES_DB":       "simple",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return config.PostgresConfig{
		Host: host, Port: port.Int(), User: "simple", Password: "simple",
		DBName: "simple", SSLMode: "disable", MaxOpenConns: 5,
	}
}

func TestPostgresRepositories_RoundTrip(t *testing.T) {
	cfg := startPostgres(t)
	log := logging.NewNopLogger()

	// The server can accept TCP before it accepts queries.
	var conn *postgres.Connection
	require.Eventually(t, func() bool {
		c, err := postgres.NewConnection(cfg, log)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, postgres.RunMigrations(cfg.DSN(), log))
	require.NoError(t, postgres.RunMigrations(cfg.DSN(), log), "second run is a no-op")

	ctx := context.Background()
	evals := repositories.NewPostgresEvaluationRepo(conn, log, nil)
	specs := repositories.NewPostgresSpecialistRepo(conn, log, nil)
	reports := repositories.NewPostgresReportStore(conn, nil)

	e, err := evaluation.NewEvaluation("p-1", maturity.TypeInitial, "", maturity.Answers{"q1": 2})
	require.NoError(t, err)
	require.NoError(t, evals.Create(ctx, e))

	e.Complete(2, time.Now())
	require.NoError(t, evals.Update(ctx, e))

	got, err := evals.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Score)
	assert.Equal(t, maturity.Answers{"q1": 2}, got.Answers)
	assert.NotNil(t, got.CompletedAt)

	latest, err := evals.LatestByProfile(ctx, "p-1", maturity.TypeInitial)
	require.NoError(t, err)
	assert.Equal(t, e.ID, latest.ID)

	items, total, err := evals.ListByProfile(ctx, "p-1", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)

	require.NoError(t, reports.SaveReport(ctx, e.ID, "<p>v1</p>"))
	require.NoError(t, reports.SaveReport(ctx, e.ID, "<p>v2</p>"))
	html, err := reports.GetReport(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>v2</p>", html)

	// Ana's label arrives decomposed, Bea's composed.
	labels := []string{"Proteccio\u0301n de datos", "Protección de datos"}
	for i, name := range []string{"Ana", "Bea"} {
		require.NoError(t, specs.Upsert(ctx, &specialist.Specialist{
			ID: fmt.Sprintf("s%d", i), Name: name, Email: name + "@example.com",
			Expertise: []string{labels[i]}, Rating: float64(4 + i), Available: true,
		}))
	}
	require.NoError(t, specs.Upsert(ctx, &specialist.Specialist{
		ID: "s2", Name: "Carla", Email: "carla@example.com",
		Expertise: []string{"Red", "protección de datos"}, Rating: 1, Available: true,
	}))

	found, err := specs.ListByExpertise(ctx, []string{"PROTECCIÓN DE DATOS"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "Bea", found[0].Name)
	assert.Equal(t, []string{"Protección de datos"}, found[1].Expertise)

	// Covering both weak categories beats a higher rating, even under a tight limit.
	found, err = specs.ListByExpertise(ctx, []string{"Red", "Protección de datos"}, 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Carla", found[0].Name)
}
