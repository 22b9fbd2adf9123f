package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
)

// maxNesting bounds how many times a JSON-encoded string is unwrapped.
const maxNesting = 2

// NormalizeAnswers converts the answer payload shapes that clients have sent
// over time into the canonical question-id → value map:
//
//	{"q1": 3, "q2": "2"}                       object of numbers or numeric strings
//	[{"questionId": "q1", "value": 3}, ...]    array of entries (id/question_id/answer aliases)
//	[["q1", 3], ["q2", 2]]                     array of pairs
//	"{\"q1\":3}"                               any of the above, JSON-encoded as a string
//
// Null or empty input yields an empty map. Null values inside an object are
// skipped, so the question counts as unanswered.
func NormalizeAnswers(raw json.RawMessage) (maturity.Answers, error) {
	return normalize(raw, 0)
}

func normalize(raw json.RawMessage, depth int) (maturity.Answers, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return maturity.Answers{}, nil
	}

	switch raw[0] {
	case '{':
		return fromObject(raw)
	case '[':
		return fromArray(raw)
	case '"':
		if depth >= maxNesting {
			return nil, fmt.Errorf("%w: answers nested too deeply", ErrInvalidAnswers)
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
		}
		return normalize(json.RawMessage(inner), depth+1)
	default:
		return nil, fmt.Errorf("%w: expected object, array or string", ErrInvalidAnswers)
	}
}

func fromObject(raw json.RawMessage) (maturity.Answers, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	out := make(maturity.Answers, len(m))
	for id, v := range m {
		if err := put(out, id, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type answerEntry struct {
	QuestionID  string          `json:"questionId"`
	QuestionID2 string          `json:"question_id"`
	ID          string          `json:"id"`
	Value       json.RawMessage `json:"value"`
	Answer      json.RawMessage `json:"answer"`
}

func (e answerEntry) id() string {
	for _, s := range []string{e.QuestionID, e.QuestionID2, e.ID} {
		if s != "" {
			return s
		}
	}
	return ""
}

func fromArray(raw json.RawMessage) (maturity.Answers, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	out := make(maturity.Answers, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		switch item[0] {
		case '{':
			var e answerEntry
			if err := json.Unmarshal(item, &e); err != nil {
				return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidAnswers, i, err)
			}
			v := e.Value
			if len(v) == 0 {
				v = e.Answer
			}
			if err := put(out, e.id(), v); err != nil {
				return nil, err
			}
		case '[':
			var pair []json.RawMessage
			if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
				return nil, fmt.Errorf("%w: entry %d is not an [id, value] pair", ErrInvalidAnswers, i)
			}
			var id string
			if err := json.Unmarshal(pair[0], &id); err != nil {
				return nil, fmt.Errorf("%w: entry %d has a non-string id", ErrInvalidAnswers, i)
			}
			if err := put(out, id, pair[1]); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: entry %d must be an object or a pair", ErrInvalidAnswers, i)
		}
	}
	return out, nil
}

func put(out maturity.Answers, id string, v json.RawMessage) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty question id", ErrInvalidAnswers)
	}
	value, ok, err := parseValue(v)
	if err != nil {
		return fmt.Errorf("%w: question %q: %v", ErrInvalidAnswers, id, err)
	}
	if ok {
		out[id] = value
	}
	return nil
}

// parseValue accepts integral JSON numbers and numeric strings. ok is false
// for null or missing values.
func parseValue(v json.RawMessage) (value int, ok bool, err error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return 0, false, nil
	}

	var s string
	if v[0] == '"' {
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
	} else {
		s = string(v)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("value %s is not numeric", v)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("value %s is not an integer", v)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false, fmt.Errorf("value %s is out of range", v)
	}
	return int(f), true, nil
}
