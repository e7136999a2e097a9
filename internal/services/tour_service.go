package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"natours_backend/internal/geo"
	"natours_backend/internal/models"
	"natours_backend/internal/repositories"
	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	// туры с рейтингом ниже в статистику не попадают
	StatsMinRating = 4.5
	MaxPlanMonths  = 12
	StatsAllGroup  = "ALL"
)

// TourService - агрегаты и геозапросы по несекретным турам
type TourService interface {
	MonthlyPlan(ctx context.Context, db *gorm.DB, year int) ([]dto.MonthlyPlan, error)
	Stats(ctx context.Context, db *gorm.DB) ([]dto.TourStats, error)
	Within(ctx context.Context, db *gorm.DB, distance float64, latlng, unit string) ([]models.Tour, error)
	Distances(ctx context.Context, db *gorm.DB, latlng, unit string) ([]dto.TourDistance, error)
	GetBySlug(ctx context.Context, db *gorm.DB, slug string) (*models.Tour, error)
	Overview(ctx context.Context, db *gorm.DB) ([]models.Tour, error)
}

type tourService struct {
	tours     repositories.TourRepository
	resources ResourceService[models.Tour]
}

func NewTourService(tours repositories.TourRepository, resources ResourceService[models.Tour]) TourService {
	return &tourService{tours: tours, resources: resources}
}

func (s *tourService) MonthlyPlan(ctx context.Context, db *gorm.DB, year int) ([]dto.MonthlyPlan, error) {
	tours, err := s.tours.FindPublic(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return BuildMonthlyPlan(tours, year), nil
}

func (s *tourService) Stats(ctx context.Context, db *gorm.DB) ([]dto.TourStats, error) {
	tours, err := s.tours.FindPublic(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return BuildTourStats(tours), nil
}

func (s *tourService) Within(ctx context.Context, db *gorm.DB, distance float64, latlng, unit string) ([]models.Tour, error) {
	center, u, err := parseGeoParams(latlng, unit)
	if err != nil {
		return nil, err
	}
	if distance < 0 {
		return nil, apperrors.InvalidValue("distance", "negative")
	}

	tours, err := s.tours.FindPublic(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	found := make([]models.Tour, 0)
	for _, t := range tours {
		p, ok := startPoint(&t)
		if ok && geo.Within(center, p, distance, u) {
			found = append(found, t)
		}
	}

	ptrs := make([]*models.Tour, len(found))
	for i := range found {
		ptrs[i] = &found[i]
	}
	if err := s.resources.Expand(ctx, db, ptrs, ExpandGuides); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return found, nil
}

func (s *tourService) Distances(ctx context.Context, db *gorm.DB, latlng, unit string) ([]dto.TourDistance, error) {
	center, u, err := parseGeoParams(latlng, unit)
	if err != nil {
		return nil, err
	}

	tours, err := s.tours.FindPublic(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return BuildDistances(tours, center, u), nil
}

// GetBySlug - страница тура: гиды и отзывы раскрыты
func (s *tourService) GetBySlug(ctx context.Context, db *gorm.DB, slug string) (*models.Tour, error) {
	tour, err := s.tours.FindBySlug(db, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrTourNotFound) {
			return nil, apperrors.ErrTourNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if err := s.resources.Expand(ctx, db, []*models.Tour{tour}, ExpandGuides, ExpandReviews); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return tour, nil
}

func (s *tourService) Overview(ctx context.Context, db *gorm.DB) ([]models.Tour, error) {
	tours, err := s.tours.FindPublic(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return tours, nil
}

// --- чистые агрегаты ---

// BuildMonthlyPlan: каждая дата старта в году (UTC) - отдельный старт,
// группировка по месяцу, по убыванию числа стартов
func BuildMonthlyPlan(tours []models.Tour, year int) []dto.MonthlyPlan {
	byMonth := make(map[int]*dto.MonthlyPlan)
	for _, t := range tours {
		for _, d := range t.StartDates {
			d = d.UTC()
			if d.Year() != year {
				continue
			}
			m := int(d.Month())
			plan, ok := byMonth[m]
			if !ok {
				plan = &dto.MonthlyPlan{Month: m, Tours: []string{}}
				byMonth[m] = plan
			}
			plan.NumTourStarts++
			plan.Tours = append(plan.Tours, t.Name)
		}
	}

	out := make([]dto.MonthlyPlan, 0, len(byMonth))
	for _, plan := range byMonth {
		out = append(out, *plan)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumTourStarts != out[j].NumTourStarts {
			return out[i].NumTourStarts > out[j].NumTourStarts
		}
		return out[i].Month < out[j].Month
	})
	if len(out) > MaxPlanMonths {
		out = out[:MaxPlanMonths]
	}
	return out
}

// BuildTourStats - группа ALL первой, затем по сложности в порядке avgPrice
func BuildTourStats(tours []models.Tour) []dto.TourStats {
	type acc struct {
		stats     dto.TourStats
		sumRating float64
		sumPrice  float64
	}
	add := func(a *acc, t *models.Tour) {
		if a.stats.NumTours == 0 || t.Price < a.stats.MinPrice {
			a.stats.MinPrice = t.Price
		}
		if a.stats.NumTours == 0 || t.Price > a.stats.MaxPrice {
			a.stats.MaxPrice = t.Price
		}
		a.stats.NumTours++
		a.stats.NumRatings += t.RatingsQuantity
		a.sumRating += t.RatingsAverage
		a.sumPrice += t.Price
	}
	finish := func(a *acc) dto.TourStats {
		n := float64(a.stats.NumTours)
		a.stats.AvgRating = a.sumRating / n
		a.stats.AvgPrice = a.sumPrice / n
		return a.stats
	}

	all := &acc{stats: dto.TourStats{Difficulty: StatsAllGroup}}
	groups := make(map[string]*acc)
	for i := range tours {
		t := &tours[i]
		if t.RatingsAverage < StatsMinRating {
			continue
		}
		key := strings.ToUpper(string(t.Difficulty))
		g, ok := groups[key]
		if !ok {
			g = &acc{stats: dto.TourStats{Difficulty: key}}
			groups[key] = g
		}
		add(g, t)
		add(all, t)
	}

	if all.stats.NumTours == 0 {
		return []dto.TourStats{}
	}

	byDifficulty := make([]dto.TourStats, 0, len(groups))
	for _, g := range groups {
		byDifficulty = append(byDifficulty, finish(g))
	}
	sort.Slice(byDifficulty, func(i, j int) bool {
		if byDifficulty[i].AvgPrice != byDifficulty[j].AvgPrice {
			return byDifficulty[i].AvgPrice < byDifficulty[j].AvgPrice
		}
		return byDifficulty[i].Difficulty < byDifficulty[j].Difficulty
	})

	return append([]dto.TourStats{finish(all)}, byDifficulty...)
}

// BuildDistances - расстояние от точки до старта каждого тура, по возрастанию
func BuildDistances(tours []models.Tour, center geo.Point, unit geo.Unit) []dto.TourDistance {
	out := make([]dto.TourDistance, 0, len(tours))
	for i := range tours {
		p, ok := startPoint(&tours[i])
		if !ok {
			continue
		}
		out = append(out, dto.TourDistance{
			ID:       tours[i].ID,
			Name:     tours[i].Name,
			Distance: geo.Distance(center, p, unit),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

func startPoint(t *models.Tour) (geo.Point, bool) {
	loc := t.Location()
	if !loc.Valid() {
		return geo.Point{}, false
	}
	return geo.Point{Lat: loc.Lat(), Lng: loc.Lng()}, true
}

func parseGeoParams(latlng, unit string) (geo.Point, geo.Unit, error) {
	center, err := geo.ParseLatLng(latlng)
	if err != nil {
		return geo.Point{}, "", err
	}
	u, err := geo.ParseUnit(unit)
	if err != nil {
		return geo.Point{}, "", err
	}
	return center, u, nil
}
