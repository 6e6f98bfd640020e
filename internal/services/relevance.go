package services

import (
	"context"

	"go.uber.org/zap"

	"jobdesk/internal/models"
	"jobdesk/internal/storage"
)

// RelevanceService считает релевантность между анкетами работников и
// вакансиями по пересечению навыков.
type RelevanceService struct {
	db     *storage.Database
	logger *zap.Logger
}

// NewRelevanceService создает RelevanceService
func NewRelevanceService(db *storage.Database, logger *zap.Logger) *RelevanceService {
	return &RelevanceService{
		db:     db,
		logger: logger,
	}
}

// SkillWages считает вклад каждого навыка вакансии в итоговую оценку.
// Бюджет в 100 баллов делится поровну между различными значениями веса,
// доля каждого значения делится между навыками, которые его носят.
// Возвращает отображение skill_id -> балл.
func SkillWages(vacancySkills []models.SkillBinding) map[int64]float64 {
	if len(vacancySkills) == 0 {
		return map[int64]float64{}
	}

	countByWeight := make(map[int]int)
	for _, binding := range vacancySkills {
		countByWeight[binding.Relevance]++
	}

	weightSum := 0
	for weight := range countByWeight {
		weightSum += weight
	}
	if weightSum == 0 {
		return map[int64]float64{}
	}

	wages := make(map[int64]float64, len(vacancySkills))
	unit := 100.0 / float64(weightSum)
	for _, binding := range vacancySkills {
		wages[binding.SkillID] = unit * float64(binding.Relevance) / float64(countByWeight[binding.Relevance])
	}

	return wages
}

// ScoreSkills считает оценку пересечения навыков работника с навыками
// вакансии. Возвращает итоговый балл и вклад каждого совпавшего навыка
// по имени.
func ScoreSkills(vacancySkills, workerSkills []models.SkillBinding) (float64, map[string]float64) {
	wages := SkillWages(vacancySkills)
	explain := make(map[string]float64)

	workerHas := make(map[int64]bool, len(workerSkills))
	for _, binding := range workerSkills {
		workerHas[binding.SkillID] = true
	}

	score := 0.0
	for _, binding := range vacancySkills {
		if !workerHas[binding.SkillID] {
			continue
		}
		wage := wages[binding.SkillID]
		score += wage
		explain[binding.SkillName] = wage
	}

	return score, explain
}

// AnnotateVacancies дополняет список вакансий релевантностью относительно
// анкеты работника. Порядок списка сохраняется.
func (s *RelevanceService) AnnotateVacancies(ctx context.Context, workerExtrasID int64, vacancies []models.Vacancy) ([]models.VacancyListItem, error) {
	workerSkills, err := s.db.GetWorkerSkills(ctx, workerExtrasID)
	if err != nil {
		return nil, err
	}

	items := make([]models.VacancyListItem, 0, len(vacancies))
	for _, vacancy := range vacancies {
		vacancySkills, err := s.db.GetVacancySkills(ctx, vacancy.ID)
		if err != nil {
			return nil, err
		}

		score, explain := ScoreSkills(vacancySkills, workerSkills)
		items = append(items, models.VacancyListItem{
			Vacancy:   vacancy,
			Relevance: &score,
			Explain:   explain,
		})
	}

	return items, nil
}

// AnnotateWorkers дополняет список работников релевантностью относительно
// вакансии. Порядок списка сохраняется.
func (s *RelevanceService) AnnotateWorkers(ctx context.Context, vacancyID int64, workers []models.WorkerListItem) ([]models.WorkerListItem, error) {
	vacancySkills, err := s.db.GetVacancySkills(ctx, vacancyID)
	if err != nil {
		return nil, err
	}

	for i := range workers {
		workerSkills, err := s.db.GetWorkerSkills(ctx, workers[i].ID)
		if err != nil {
			return nil, err
		}

		score, explain := ScoreSkills(vacancySkills, workerSkills)
		workers[i].Relevance = &score
		workers[i].Explain = explain
	}

	return workers, nil
}
