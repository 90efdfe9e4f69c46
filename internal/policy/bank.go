package policy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// #region question-types

// QuestionKind selects the phrasing variant of a bank entry.
type QuestionKind string

const (
	KindAsk      QuestionKind = "ask"
	KindClarify  QuestionKind = "clarify"
	KindSimplify QuestionKind = "simplify"
	KindHint     QuestionKind = "hint"
)

// Question is one deterministic bank entry. The bank backs topic rotation
// and the degraded Interviewer default; it never reaches the candidate
// unedited unless the Interviewer role is unavailable.
type Question struct {
	ID         string       `yaml:"question_id"`
	Topic      string       `yaml:"topic"`
	Difficulty int          `yaml:"difficulty"`
	Kind       QuestionKind `yaml:"type"`
	Prompt     string       `yaml:"prompt"`
}

// #endregion

// #region bank

// Bank is the deterministic question pool, keyed by topic/difficulty/kind.
type Bank struct {
	questions []Question
}

// NewBank wraps a fixed question list.
func NewBank(questions []Question) *Bank {
	return &Bank{questions: questions}
}

// LoadBank reads a YAML question bank file and validates its entries.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	var doc struct {
		Questions []Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	seen := make(map[string]bool)
	for i, q := range doc.Questions {
		if q.ID == "" || q.Topic == "" || q.Prompt == "" {
			return nil, fmt.Errorf("question %d: question_id, topic, and prompt are required", i)
		}
		if q.Difficulty < 1 || q.Difficulty > 5 {
			return nil, fmt.Errorf("question %s: difficulty %d out of range", q.ID, q.Difficulty)
		}
		switch q.Kind {
		case KindAsk, KindClarify, KindSimplify, KindHint:
		default:
			return nil, fmt.Errorf("question %s: unknown type %q", q.ID, q.Kind)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("question %s: duplicate question_id", q.ID)
		}
		seen[q.ID] = true
	}
	return &Bank{questions: doc.Questions}, nil
}

// #endregion

// #region queries

// Candidates filters the bank by difficulty, then optionally topic and kind.
func (b *Bank) Candidates(topic string, difficulty int, kind QuestionKind) []Question {
	var out []Question
	for _, q := range b.questions {
		if q.Difficulty != difficulty {
			continue
		}
		if topic != "" && q.Topic != topic {
			continue
		}
		if kind != "" && q.Kind != kind {
			continue
		}
		out = append(out, q)
	}
	return out
}

// PickNext returns the first unasked question matching topic/difficulty/kind,
// or nil when the pool is exhausted.
func (b *Bank) PickNext(asked func(string) bool, topic string, difficulty int, kind QuestionKind) *Question {
	for _, q := range b.Candidates(topic, difficulty, kind) {
		if !asked(q.ID) {
			q := q
			return &q
		}
	}
	return nil
}

// Topics returns all distinct bank topics sorted.
func (b *Bank) Topics() []string {
	set := make(map[string]bool)
	for _, q := range b.questions {
		set[q.Topic] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// #endregion

// #region default-bank

// DefaultBank is the built-in pool used when no YAML bank is configured.
func DefaultBank() *Bank {
	return NewBank([]Question{
		{ID: "py_types_1", Topic: "python_types", Difficulty: 1, Kind: KindAsk,
			Prompt: "В чём разница между list и tuple в Python? Приведи пример."},
		{ID: "py_types_1_simplify", Topic: "python_types", Difficulty: 1, Kind: KindSimplify,
			Prompt: "Чем list отличается от tuple?"},
		{ID: "py_types_1_hint", Topic: "python_types", Difficulty: 1, Kind: KindHint,
			Prompt: "Подсказка: подумай про изменяемость коллекций. Чем list и tuple отличаются?"},
		{ID: "py_iter_2", Topic: "python_iterators", Difficulty: 2, Kind: KindAsk,
			Prompt: "Что такое iterable и iterator? Как работает протокол итерации?"},
		{ID: "py_iter_2_clarify", Topic: "python_iterators", Difficulty: 2, Kind: KindClarify,
			Prompt: "Уточни разницу между iterable и iterator и как их получить."},
		{ID: "sql_join_1", Topic: "sql_joins", Difficulty: 1, Kind: KindAsk,
			Prompt: "Что такое JOIN в SQL и какие типы JOIN ты знаешь?"},
		{ID: "sql_join_1_simplify", Topic: "sql_joins", Difficulty: 1, Kind: KindSimplify,
			Prompt: "Объясни простыми словами, что делает JOIN в SQL."},
		{ID: "py_oop_3", Topic: "python_oop", Difficulty: 3, Kind: KindAsk,
			Prompt: "Объясни разницу между classmethod и staticmethod. Когда их использовать?"},
		{ID: "sql_index_3", Topic: "sql_indexes", Difficulty: 3, Kind: KindAsk,
			Prompt: "Что такое индекс в SQL и какие есть типы индексов?"},
		{ID: "git_rebase_1", Topic: "git_basics", Difficulty: 1, Kind: KindAsk,
			Prompt: "Что делает команда git rebase и когда её используют?"},
		{ID: "git_rebase_1_clarify", Topic: "git_basics", Difficulty: 1, Kind: KindClarify,
			Prompt: "Когда бы ты выбрал rebase вместо merge?"},
	})
}

// #endregion
