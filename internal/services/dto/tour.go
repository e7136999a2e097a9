package dto

// MonthlyPlan - старты туров за месяц
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourStats - статистика по группе сложности; "ALL" - по всем турам
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// TourImages - имена сохраненных файлов после загрузки
type TourImages struct {
	ImageCover string
	Images     []string
}

func (i TourImages) Empty() bool {
	return i.ImageCover == "" && len(i.Images) == 0
}
