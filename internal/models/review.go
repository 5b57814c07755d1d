package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of the cleaner on one booking. A
// customer reviews a booking at most once; the cleaner reference is
// denormalized from the booking so ratings aggregate without a join.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BookingID  uuid.UUID `db:"booking_id" json:"booking_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	CleanerID  uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	Stars      int       `db:"stars" json:"stars"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RatingBreakdown counts reviews per star value.
type RatingBreakdown struct {
	OneStar   int `db:"one_star" json:"one_star"`
	TwoStar   int `db:"two_star" json:"two_star"`
	ThreeStar int `db:"three_star" json:"three_star"`
	FourStar  int `db:"four_star" json:"four_star"`
	FiveStar  int `db:"five_star" json:"five_star"`
}

// ReviewRatingSummary aggregates a cleaner's reviews. The average is
// rounded to the nearest whole star.
type ReviewRatingSummary struct {
	AvgRatings      int             `json:"avg_ratings"`
	TotalRatings    int             `json:"total_ratings"`
	RatingBreakdown RatingBreakdown `json:"rating_breakdown"`
}
