package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaViolations_EmbeddedQuizzesConform(t *testing.T) {
	for _, name := range []string{"initial.yaml", "advanced.yaml"} {
		data, err := assets.ReadFile("quizzes/" + name)
		require.NoError(t, err)
		assert.Empty(t, SchemaViolations(data), name)
	}
}

func TestSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing questions",
			doc:  "type: INITIAL\ntitle: x\n",
			want: "/: missing property 'questions'",
		},
		{
			name: "unknown type",
			doc:  "type: EXPERT\ntitle: x\nquestions: [{id: q1, text: t, options: [{text: a, value: 1}]}]\n",
			want: "/type:",
		},
		{
			name: "non-integer value",
			doc:  "type: INITIAL\ntitle: x\nquestions: [{id: q1, text: t, options: [{text: a, value: high}]}]\n",
			want: "/questions/0/options/0/value:",
		},
		{
			name: "unexpected field",
			doc:  "type: INITIAL\ntitle: x\nweight: 2\nquestions: [{id: q1, text: t, options: [{text: a, value: 1}]}]\n",
			want: "weight",
		},
		{
			name: "empty options",
			doc:  "type: INITIAL\ntitle: x\nquestions: [{id: q1, text: t, options: []}]\n",
			want: "/questions/0/options:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := SchemaViolations([]byte(tt.doc))
			require.NotEmpty(t, v)
			assert.Contains(t, joinLines(v), tt.want)
		})
	}
}

func TestSchemaViolations_BadYAML(t *testing.T) {
	v := SchemaViolations([]byte("type: [unterminated"))
	require.Len(t, v, 1)
	assert.Contains(t, v[0], "yaml:")
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
