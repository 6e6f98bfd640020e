package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestAnswerBindingAnswer(t *testing.T) {
	opts := []RequirementOption{
		{ID: 1, RequirementID: 1, Value: "Kyiv"},
		{ID: 2, RequirementID: 1, Value: "Lviv"},
	}

	tests := []struct {
		name    string
		binding AnswerBinding
		kind    AnswerKind
		values  []string
	}{
		{
			name:    "no answer at all",
			binding: AnswerBinding{},
			kind:    AnswerNone,
		},
		{
			name:    "single option",
			binding: AnswerBinding{Options: opts[:1]},
			kind:    AnswerSingle,
			values:  []string{"Kyiv"},
		},
		{
			name:    "multiple options",
			binding: AnswerBinding{Options: opts},
			kind:    AnswerMultiple,
			values:  []string{"Kyiv", "Lviv"},
		},
		{
			name:    "custom answer",
			binding: AnswerBinding{CustomAnswer: strPtr("remote only")},
			kind:    AnswerCustom,
			values:  []string{"remote only"},
		},
		{
			name:    "custom answer wins over options",
			binding: AnswerBinding{CustomAnswer: strPtr("15000"), Options: opts},
			kind:    AnswerCustom,
			values:  []string{"15000"},
		},
		{
			name:    "empty custom answer does not count",
			binding: AnswerBinding{CustomAnswer: strPtr(""), Options: opts[:1]},
			kind:    AnswerSingle,
			values:  []string{"Kyiv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := tt.binding.Answer()
			assert.Equal(t, tt.kind, answer.Kind)
			assert.Equal(t, tt.values, answer.Values)
		})
	}
}

func TestChatHasParticipant(t *testing.T) {
	chat := &Chat{User1ID: 10, User2ID: 20}

	assert.True(t, chat.HasParticipant(10))
	assert.True(t, chat.HasParticipant(20))
	assert.False(t, chat.HasParticipant(30))
}

func TestValidExperienceLevel(t *testing.T) {
	for _, level := range []string{LevelTrainee, LevelJunior, LevelMiddle, LevelSenior} {
		assert.True(t, ValidExperienceLevel(level), level)
	}
	assert.False(t, ValidExperienceLevel("Expert"))
	assert.False(t, ValidExperienceLevel(""))
	assert.False(t, ValidExperienceLevel("junior"))
}

func TestValidMessageStatus(t *testing.T) {
	for _, status := range []string{MessageCreated, MessageSent, MessageRead} {
		assert.True(t, ValidMessageStatus(status), status)
	}
	assert.False(t, ValidMessageStatus("delivered"))
	assert.False(t, ValidMessageStatus(""))
}
