package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdesk/internal/models"
)

func vacancySkill(skillID int64, name string, weight int) models.SkillBinding {
	return models.SkillBinding{SkillID: skillID, SkillName: name, Relevance: weight}
}

func workerSkill(skillID int64) models.SkillBinding {
	return models.SkillBinding{SkillID: skillID}
}

func TestSkillWages(t *testing.T) {
	tests := []struct {
		name     string
		vacancy  []models.SkillBinding
		expected map[int64]float64
	}{
		{
			name: "equal weights split evenly",
			vacancy: []models.SkillBinding{
				vacancySkill(1, "Go", 1),
				vacancySkill(2, "SQL", 1),
			},
			expected: map[int64]float64{1: 50, 2: 50},
		},
		{
			name: "two distinct weights",
			vacancy: []models.SkillBinding{
				vacancySkill(1, "Go", 1),
				vacancySkill(2, "SQL", 2),
			},
			// weightSum = 1+2 = 3, unit = 100/3
			expected: map[int64]float64{1: 100.0 / 3, 2: 200.0 / 3},
		},
		{
			name: "repeated weight divides its share",
			vacancy: []models.SkillBinding{
				vacancySkill(1, "Go", 2),
				vacancySkill(2, "SQL", 2),
				vacancySkill(3, "Docker", 1),
			},
			// weightSum = 2+1 = 3; weight-2 skills get (100/3)*2/2 each
			expected: map[int64]float64{1: 100.0 / 3, 2: 100.0 / 3, 3: 100.0 / 3},
		},
		{
			name:     "no skills",
			vacancy:  nil,
			expected: map[int64]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wages := SkillWages(tt.vacancy)
			require.Len(t, wages, len(tt.expected))
			for id, want := range tt.expected {
				assert.InDelta(t, want, wages[id], 0.0001)
			}
		})
	}
}

func TestScoreSkills(t *testing.T) {
	vacancy := []models.SkillBinding{
		vacancySkill(1, "Go", 1),
		vacancySkill(2, "SQL", 2),
	}

	t.Run("full match sums to 100", func(t *testing.T) {
		score, explain := ScoreSkills(vacancy, []models.SkillBinding{workerSkill(1), workerSkill(2)})
		assert.InDelta(t, 100, score, 0.0001)
		require.Len(t, explain, 2)
		assert.InDelta(t, 100.0/3, explain["Go"], 0.0001)
		assert.InDelta(t, 200.0/3, explain["SQL"], 0.0001)
	})

	t.Run("partial match takes only held skills", func(t *testing.T) {
		score, explain := ScoreSkills(vacancy, []models.SkillBinding{workerSkill(2)})
		assert.InDelta(t, 200.0/3, score, 0.0001)
		require.Len(t, explain, 1)
		assert.InDelta(t, 200.0/3, explain["SQL"], 0.0001)
	})

	t.Run("irrelevant worker skills ignored", func(t *testing.T) {
		score, explain := ScoreSkills(vacancy, []models.SkillBinding{workerSkill(99)})
		assert.Zero(t, score)
		assert.Empty(t, explain)
	})

	t.Run("vacancy without skills scores zero", func(t *testing.T) {
		score, explain := ScoreSkills(nil, []models.SkillBinding{workerSkill(1)})
		assert.Zero(t, score)
		assert.Empty(t, explain)
	})

	t.Run("worker without skills scores zero", func(t *testing.T) {
		score, explain := ScoreSkills(vacancy, nil)
		assert.Zero(t, score)
		assert.Empty(t, explain)
	})
}
