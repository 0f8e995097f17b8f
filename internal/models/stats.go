package models

// StatusCount is the share of bookings in one status.
type StatusCount struct {
	Status     BookingStatus `json:"status"`
	Count      int64         `json:"count"`
	Percentage float64       `json:"percentage"`
}

// DailyRevenue is the completed-booking revenue of one date.
type DailyRevenue struct {
	Tanggal       string `json:"date"`
	BookingsCount int64  `json:"bookings_count"`
	TotalRevenue  int64  `json:"total_revenue"`
}

// PopularLapangan ranks a field by completed bookings.
type PopularLapangan struct {
	ID           int64   `json:"id"`
	Nama         string  `json:"nama"`
	Lokasi       string  `json:"lokasi"`
	BookingCount int64   `json:"booking_count"`
	AvgRating    float64 `json:"avg_rating"`
}

// DashboardStats is the admin analytics snapshot.
type DashboardStats struct {
	Bookings []StatusCount     `json:"bookings"`
	Revenue  []DailyRevenue    `json:"revenue"`
	Popular  []PopularLapangan `json:"popular"`
}
