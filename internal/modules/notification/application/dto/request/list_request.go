package request

type ListNotificationsRequest struct {
	UserId int64 `form:"-"`
	Limit  int   `form:"limit"`
	Offset int   `form:"offset"`
}

type NearbyUsersRequest struct {
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lng"`
	RadiusKm  float64  `form:"radius_km"`
}
