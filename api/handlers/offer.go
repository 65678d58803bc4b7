package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mindsell/tutor-portal-api/config"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/models"
)

// Offer exported for testing purposes
type Offer struct {
	DB      databases.OfferDatabase
	BaseURL string
}

// OffersHandler returns every active offer
func (o Offer) OffersHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{"active": true}
	if r.URL.Query().Get("all") == "true" {
		filter = bson.M{}
	}
	dbResp, err := o.DB.Find(context.TODO(), filter)
	if err != nil {
		config.ErrorStatus("failed to get offers", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Offer{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateOfferHandler creates an offer
func (o Offer) CreateOfferHandler(w http.ResponseWriter, r *http.Request) {
	var offer models.Offer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if offer.Title == "" {
		config.ErrorStatus("offer title is required", http.StatusBadRequest, w, fmt.Errorf("empty title"))
		return
	}
	if !offer.Evergreen && offer.ExpiresAt == nil {
		config.ErrorStatus("non-evergreen offers need an expiry", http.StatusBadRequest, w, fmt.Errorf("missing expiresAt"))
		return
	}

	offer.ID = primitive.NewObjectID()
	offer.Active = true

	if _, err := o.DB.InsertOne(context.Background(), offer); err != nil {
		config.ErrorStatus("failed to insert offer", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(offer)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateOfferHandler updates an offer by ID
func (o Offer) UpdateOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID := mux.Vars(r)["offer_id"]

	oID, err := primitive.ObjectIDFromHex(offerID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	delete(fields, "_id")

	res, err := o.DB.UpdateOne(context.Background(), bson.M{"_id": oID}, bson.M{"$set": fields})
	if err != nil {
		config.ErrorStatus("failed to update offer", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]int64{"updated": res.ModifiedCount})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteOfferHandler deletes an offer by ID
func (o Offer) DeleteOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID := mux.Vars(r)["offer_id"]

	oID, err := primitive.ObjectIDFromHex(offerID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = o.DB.DeleteOne(context.Background(), bson.M{"_id": oID})
	if err != nil {
		config.ErrorStatus("failed to delete offer", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted": true}`))
}

// CreateCheckoutSessionHandler creates a Stripe Checkout session for an offer
func (o Offer) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	offerID := mux.Vars(r)["offer_id"]

	oID, err := primitive.ObjectIDFromHex(offerID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	offer, err := o.DB.FindOne(context.Background(), bson.M{"_id": oID})
	if err != nil {
		config.ErrorStatus("failed to get offer by ID", http.StatusNotFound, w, err)
		return
	}
	if !offer.Active {
		config.ErrorStatus("offer is no longer active", http.StatusConflict, w, fmt.Errorf("offer %s inactive", offerID))
		return
	}
	if offer.PriceCents <= 0 {
		config.ErrorStatus("offer has no checkout price", http.StatusConflict, w, fmt.Errorf("priceCents not set"))
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyEUR)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(offer.Title),
						Description: stripe.String(offer.Desc),
					},
					UnitAmount: stripe.Int64(offer.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(o.BaseURL + "/api/v1/success"),
		CancelURL:  stripe.String(o.BaseURL + "/api/v1/cancel"),
	}

	sess, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{"url": sess.URL, "id": sess.ID})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// handleSuccessRedirect is the Stripe success landing page
func (o Offer) handleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "payment successful"}`))
}

// handleCancelRedirect is the Stripe cancel landing page
func (o Offer) handleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "payment cancelled"}`))
}
