package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Offer holds the structure for the offers collection in mongo. Evergreen
// offers never expire; the rest are deactivated by the scheduler once
// ExpiresAt has passed.
type Offer struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id"`
	Title      string              `json:"title" bson:"title"`
	Desc       string              `json:"desc" bson:"desc"`
	Price      string              `json:"price" bson:"price"` // display label, e.g. "€ 149"
	PriceCents int64               `json:"priceCents" bson:"priceCents"`
	Badge      string              `json:"badge" bson:"badge"`
	Color      string              `json:"color" bson:"color"`
	Evergreen  bool                `json:"evergreen" bson:"evergreen"`
	Active     bool                `json:"active" bson:"active"`
	ExpiresAt  *primitive.DateTime `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
}
