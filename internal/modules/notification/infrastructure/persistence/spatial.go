package persistence

// MySQL 8 中 SRID 4326 的轴顺序为 (纬度, 经度)，因此 POINT 的第一个参数传纬度。
// 坐标始终以绑定参数传入，不拼接 WKT 文本。
// users.location 由用户模块写入，须使用同样的轴顺序：ST_SRID(POINT(lat, lng), 4326)，
// 或 ST_GeomFromText('POINT(lng lat)', 4326, 'axis-order=long-lat')。
const (
	pointParam       = "ST_SRID(POINT(?, ?), 4326)"
	distanceMetersTo = "ST_Distance_Sphere(u.location, " + pointParam + ")"
	latitudeOfUser   = "ST_Latitude(u.location) AS latitude"
	longitudeOfUser  = "ST_Longitude(u.location) AS longitude"
)
