package wstat

import (
	"cmp"
	"fmt"
	"slices"
)

// Partition 그룹 키(지역, 국가, 연도 등)로 나뉜 부분 집합
type Partition[K cmp.Ordered] struct {
	Key    K
	Sample Sample
}

// Keyed 파티션별 계산 결과
type Keyed[K cmp.Ordered, R any] struct {
	Key   K `json:"key"`
	Value R `json:"value"`
}

// PartitionBy key(i) 로 관측치를 서로소 부분 집합으로 분할 (키 오름차순)
// 각 파티션 안에서는 원래 관측치 순서를 유지
func PartitionBy[K cmp.Ordered](s Sample, key func(i int) K) ([]Partition[K], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	members := make(map[K][]int)
	for i := range s.Values {
		k := key(i)
		members[k] = append(members[k], i)
	}

	keys := make([]K, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]Partition[K], len(keys))
	for i, k := range keys {
		parts[i] = Partition[K]{Key: k, Sample: s.Subset(members[k])}
	}
	return parts, nil
}

// MapPartitions 같은 통계를 각 파티션에 적용
// ⭐ SSOT: 파티션별 반복은 이 함수로만 (집계 로직을 파티션마다 복제하지 않음)
func MapPartitions[K cmp.Ordered, R any](parts []Partition[K], fn func(Sample) (R, error)) ([]Keyed[K, R], error) {
	out := make([]Keyed[K, R], 0, len(parts))
	for _, p := range parts {
		v, err := fn(p.Sample)
		if err != nil {
			return nil, fmt.Errorf("partition %v: %w", p.Key, err)
		}
		out = append(out, Keyed[K, R]{Key: p.Key, Value: v})
	}
	return out, nil
}

// ByPartition PartitionBy + MapPartitions
func ByPartition[K cmp.Ordered, R any](s Sample, key func(i int) K, fn func(Sample) (R, error)) ([]Keyed[K, R], error) {
	parts, err := PartitionBy(s, key)
	if err != nil {
		return nil, err
	}
	return MapPartitions(parts, fn)
}

// Lookup 키로 파티션 결과 조회 (없으면 ErrMissingField)
func Lookup[K cmp.Ordered, R any](results []Keyed[K, R], key K) (R, error) {
	for _, r := range results {
		if r.Key == key {
			return r.Value, nil
		}
	}
	var zero R
	return zero, fmt.Errorf("%w: partition %v", ErrMissingField, key)
}
