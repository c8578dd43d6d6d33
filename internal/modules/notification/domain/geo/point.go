// Package geo 提供经纬度点、球面距离与坐标校验
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm 与 MySQL ST_Distance_Sphere 默认半径 (6370986 m) 一致，
// 保证进程内计算与 SQL 计算的距离相同
const EarthRadiusKm = 6370.986

type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

func NewPoint(lat, lng float64) *Point {
	return &Point{Lat: lat, Lng: lng}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lng)
}

// InvalidCoordinateError 坐标越界
type InvalidCoordinateError struct {
	Field string
	Value float64
}

func (e *InvalidCoordinateError) Error() string {
	switch e.Field {
	case "latitude":
		return fmt.Sprintf("invalid latitude %v: must be between -90 and 90", e.Value)
	default:
		return fmt.Sprintf("invalid longitude %v: must be between -180 and 180", e.Value)
	}
}

// Validate 校验纬度 [-90,90]、经度 [-180,180]
func Validate(p Point) error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return &InvalidCoordinateError{Field: "latitude", Value: p.Lat}
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return &InvalidCoordinateError{Field: "longitude", Value: p.Lng}
	}
	return nil
}

// DistanceKm 球面大圆距离（haversine）
func DistanceKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Within 判断 b 是否在以 a 为圆心、radiusKm 为半径的范围内
func Within(a, b Point, radiusKm float64) bool {
	return DistanceKm(a, b) <= radiusKm
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
