package wstat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// =============================================================================
// N분위 배정 (누적 비중 상한 규칙)
// =============================================================================
//
// 값 오름차순 누적 인구 비중 S_i 에 대해 bucket = ceil(S_i · N), [1, N] 으로 고정.
// 즉 bucket k 는 S_i ∈ ((k-1)/N, k/N] 인 관측치.
// 중점 보간 백분위수(Percentile)와는 경계 규칙이 다르다.

// tileRelTol S_i·N 이 정수 k 와 상대 오차 이내면 정확히 k 로 본다 (누적합 반올림 오차)
// 이보다 크게 경계를 넘은 관측치는 다음 분위
const tileRelTol = 1e-12

// Tiles 관측치별 N분위 배정 결과
type Tiles struct {
	N       int
	buckets []int // 원래 관측치 순서
	sample  Sample
}

// TileGroup 한 분위에 속한 관측치
type TileGroup struct {
	Tile   int
	Sample Sample
}

// TileCount 실수로 받은 분위 수를 검증하여 정수로 변환
// 정수가 아니거나 0 이하이면 ErrInvalidInput
func TileCount(n float64) (int, error) {
	if math.IsNaN(n) || n != math.Trunc(n) {
		return 0, fmt.Errorf("%w: tile count %v is not an integer", ErrInvalidInput, n)
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: tile count %v must be positive", ErrInvalidInput, n)
	}
	return int(n), nil
}

// AssignTiles 각 관측치를 1..N 분위에 배정
func AssignTiles(s Sample, n int) (Tiles, error) {
	if n <= 0 {
		return Tiles{}, fmt.Errorf("%w: tile count %d must be positive", ErrInvalidInput, n)
	}

	o, err := sortSample(s)
	if err != nil {
		return Tiles{}, err
	}

	buckets := make([]int, len(o.x))
	for i, j := range o.idx {
		buckets[j] = tileOf(o.cum[i], o.total, n)
	}

	return Tiles{N: n, buckets: buckets, sample: s}, nil
}

// tileOf ceil(cum·N/total) 를 [1, N] 으로 고정
func tileOf(cum, total float64, n int) int {
	x := cum * float64(n) / total
	if r := math.Round(x); scalar.EqualWithinRel(x, r, tileRelTol) {
		x = r
	}
	k := int(math.Ceil(x))
	if k < 1 {
		return 1
	}
	if k > n {
		return n
	}
	return k
}

// Buckets 원래 관측치 순서의 분위 번호 (복사본)
func (t Tiles) Buckets() []int {
	return append([]int(nil), t.buckets...)
}

// Groups 분위별 관측치 (분위 오름차순, 빈 분위는 제외)
// 한 관측치의 가중치가 1/N 을 넘으면 빈 분위가 생길 수 있음
func (t Tiles) Groups() []TileGroup {
	members := make([][]int, t.N+1)
	for i, k := range t.buckets {
		members[k] = append(members[k], i)
	}

	groups := make([]TileGroup, 0, t.N)
	for k := 1; k <= t.N; k++ {
		if len(members[k]) == 0 {
			continue
		}
		groups = append(groups, TileGroup{Tile: k, Sample: t.sample.Subset(members[k])})
	}
	return groups
}

// Group k번째 분위의 관측치 (없으면 ok=false)
func (t Tiles) Group(k int) (Sample, bool) {
	var idx []int
	for i, b := range t.buckets {
		if b == k {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return Sample{}, false
	}
	return t.sample.Subset(idx), true
}
