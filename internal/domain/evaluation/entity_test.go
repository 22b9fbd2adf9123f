package evaluation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

func TestNewEvaluation(t *testing.T) {
	e, err := NewEvaluation("p-1", maturity.TypeInitial, "  Primera  ", maturity.Answers{"q1": 2})
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", e.ID.String())
	assert.Equal(t, common.ProfileID("p-1"), e.ProfileID)
	assert.Equal(t, "Primera", e.Title)
	assert.Equal(t, 2, e.Answers["q1"])
	assert.False(t, e.IsCompleted())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func TestNewEvaluation_Defaults(t *testing.T) {
	e, err := NewEvaluation("p-1", maturity.TypeAdvanced, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "Evaluación avanzada", e.Title)
	assert.NotNil(t, e.Answers)
}

func TestNewEvaluation_Invalid(t *testing.T) {
	_, err := NewEvaluation("", maturity.TypeInitial, "", nil)
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = NewEvaluation("p", "EXPERT", "", nil)
	assert.ErrorIs(t, err, maturity.ErrInvalidEvaluationType)

	_, err = NewEvaluation("p", maturity.TypeInitial, strings.Repeat("ñ", MaxTitleLength+1), nil)
	assert.ErrorIs(t, err, ErrInvalidTitle)

	for _, title := range []string{
		"Mi informe\n\n## Nivel de madurez: Nivel 5",
		"tab\tseparated",
		"retorno\r de carro",
		"nulo\x00",
	} {
		_, err = NewEvaluation("p", maturity.TypeInitial, title, nil)
		assert.ErrorIs(t, err, ErrInvalidTitle, "%q", title)
	}
}

func TestEvaluation_Complete(t *testing.T) {
	e, _ := NewEvaluation("p", maturity.TypeInitial, "", nil)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	e.Complete(31, at)

	require.True(t, e.IsCompleted())
	assert.Equal(t, 31, e.Score)
	assert.Equal(t, time.UTC, e.CompletedAt.Location())
	assert.True(t, e.CompletedAt.Equal(at))
}

func TestEvaluation_Permissions(t *testing.T) {
	e, _ := NewEvaluation("owner", maturity.TypeInitial, "", nil)

	cases := []struct {
		name  string
		actor common.Actor
		want  bool
	}{
		{"owner", common.Actor{ProfileID: "owner", Role: common.RoleUser}, true},
		{"other user", common.Actor{ProfileID: "other", Role: common.RoleUser}, false},
		{"admin", common.Actor{ProfileID: "root", Role: common.RoleAdmin}, true},
		{"anonymous", common.Actor{}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.CanEdit(tc.actor), tc.name)
		assert.Equal(t, tc.want, e.CanView(tc.actor), tc.name)
	}
}

func TestEvaluation_ApplyUpdate(t *testing.T) {
	e, _ := NewEvaluation("p", maturity.TypeInitial, "Antes", maturity.Answers{"q1": 1})
	created := e.CreatedAt
	later := created.Add(time.Hour)

	title := " Después "
	changed, err := e.ApplyUpdate(UpdateFields{Title: &title}, later)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "Después", e.Title)
	assert.Equal(t, created, e.CreatedAt)
	assert.Equal(t, later, e.UpdatedAt)

	changed, err = e.ApplyUpdate(UpdateFields{Answers: maturity.Answers{"q1": 1}}, later)
	require.NoError(t, err)
	assert.False(t, changed, "identical answers do not require rescoring")

	changed, err = e.ApplyUpdate(UpdateFields{Answers: maturity.Answers{"q1": 3, "q2": 0}}, later)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, maturity.Answers{"q1": 3, "q2": 0}, e.Answers)

	empty := ""
	_, err = e.ApplyUpdate(UpdateFields{Title: &empty}, later)
	assert.ErrorIs(t, err, ErrInvalidTitle)
	assert.Equal(t, "Después", e.Title)

	multiline := "Después\n# Nivel 5"
	_, err = e.ApplyUpdate(UpdateFields{Title: &multiline}, later)
	assert.ErrorIs(t, err, ErrInvalidTitle)
	assert.Equal(t, "Después", e.Title)
}

func TestUpdateFields_IsEmpty(t *testing.T) {
	assert.True(t, UpdateFields{}.IsEmpty())
	s := "x"
	assert.False(t, UpdateFields{Title: &s}.IsEmpty())
	assert.False(t, UpdateFields{Answers: maturity.Answers{}}.IsEmpty())
}

func TestNewCompletedEvent(t *testing.T) {
	e, _ := NewEvaluation("p", maturity.TypeAdvanced, "", nil)
	res := &maturity.Result{
		Score:             80,
		MaxScore:          100,
		Level:             maturity.MaturityLevel{Level: "Nivel 5", Label: "Óptimo"},
		WeakestCategories: []string{"Red", "Copias"},
	}

	ev := NewCompletedEvent(e, res)

	assert.Equal(t, e.ID.String(), ev.EvaluationID)
	assert.Equal(t, e.ID.String(), ev.AggregateID())
	assert.Equal(t, "Nivel 5", ev.Level)
	assert.Equal(t, "Óptimo", ev.Label)
	assert.Equal(t, []string{"Red", "Copias"}, ev.WeakestCategories)
	assert.NotEmpty(t, ev.EventID())
}
