package wstat

import (
	"fmt"
)

// GrowthPoint 분위별 평균 소득 변화
type GrowthPoint struct {
	Tile        int     `json:"tile"`
	EarlierMean float64 `json:"earlier_mean"`
	LaterMean   float64 `json:"later_mean"`
	Rate        float64 `json:"rate"` // later/earlier - 1
}

// GrowthIncidence 성장 발생 곡선
// 두 시점을 각각 N분위로 나눈 뒤 분위별 가중 평균을 비교한다.
// 어느 한쪽이라도 비어 있는(또는 가중치 합이 0인) 분위는 오류 없이 제외 (inner join).
// 이전 시점 분위 평균이 0이면 성장률을 정의할 수 없으므로 ErrDegenerate.
func GrowthIncidence(earlier, later Sample, n int) ([]GrowthPoint, error) {
	before, err := tileMeans(earlier, n)
	if err != nil {
		return nil, fmt.Errorf("earlier period: %w", err)
	}
	after, err := tileMeans(later, n)
	if err != nil {
		return nil, fmt.Errorf("later period: %w", err)
	}

	points := make([]GrowthPoint, 0, n)
	for k := 1; k <= n; k++ {
		mb, okb := before[k]
		ma, oka := after[k]
		if !okb || !oka {
			continue
		}
		if mb == 0 {
			return nil, fmt.Errorf("%w: tile %d has zero mean in earlier period", ErrDegenerate, k)
		}
		points = append(points, GrowthPoint{
			Tile:        k,
			EarlierMean: mb,
			LaterMean:   ma,
			Rate:        ma/mb - 1,
		})
	}
	return points, nil
}

// GrowthCurve 성장 발생 결과를 곡선 형태로 변환 (x=분위, y=성장률)
func GrowthCurve(points []GrowthPoint) Curve {
	pts := make([]Point, len(points))
	for i, p := range points {
		pts[i] = Point{X: float64(p.Tile), Y: p.Rate}
	}
	return Curve{Kind: KindGrowthIncidence, Points: pts}
}

// tileMeans 분위 → 가중 평균 (빈 분위 없음)
func tileMeans(s Sample, n int) (map[int]float64, error) {
	tiles, err := AssignTiles(s, n)
	if err != nil {
		return nil, err
	}

	means := make(map[int]float64, n)
	for _, g := range tiles.Groups() {
		if g.Sample.TotalWeight() == 0 {
			continue
		}
		m, err := Aggregate(g.Sample)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", g.Tile, err)
		}
		means[g.Tile] = m.Mean
	}
	return means, nil
}
