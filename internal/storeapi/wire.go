package storeapi

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// ref is a backend reference that arrives either as a bare id/name string or as a
// populated document.
type ref struct {
	ID     string
	Name   string
	Images []string
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*r = ref{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ref{ID: s, Name: s}
		return nil
	}
	var doc struct {
		ID     string  `json:"_id"`
		Name   string  `json:"name"`
		Images []image `json:"images"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	r.ID, r.Name = doc.ID, doc.Name
	r.Images = imageURLs(doc.Images)
	return nil
}

// image is an uploaded file reference: a URL string or {url, public_id}.
type image string

func (i *image) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = image(s)
		return nil
	}
	var doc struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*i = image(doc.URL)
	return nil
}

func imageURLs(images []image) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		if img != "" {
			urls = append(urls, string(img))
		}
	}
	return urls
}

type wireProduct struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Discount *float64 `json:"discount"`
	Images   []image  `json:"images"`
	Brand    ref      `json:"brand"`
	Category ref      `json:"category"`
}

type wireCartItem struct {
	ID       string       `json:"_id"`
	Product  *wireProduct `json:"product"`
	Quantity int          `json:"quantity"`
}

type wireCart struct {
	CartItems []wireCartItem `json:"cartItems"`
}

type wireShipping struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type wireOrderItem struct {
	Product  ref     `json:"product"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type wireOrder struct {
	ID            string          `json:"_id"`
	User          ref             `json:"user"`
	OrderItems    []wireOrderItem `json:"orderItems"`
	ShippingInfo  wireShipping    `json:"shippingInfo"`
	PaymentMethod string          `json:"paymentMethod"`
	OrderStatus   string          `json:"orderStatus"`
	Status        string          `json:"status"`
	TotalPrice    float64         `json:"totalPrice"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type newOrderItem struct {
	Product  string `json:"product"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type newOrder struct {
	OrderItems    []newOrderItem `json:"orderItems"`
	ShippingInfo  wireShipping   `json:"shippingInfo"`
	PaymentMethod string         `json:"paymentMethod"`
	TotalPrice    int64          `json:"totalPrice"`
}

type wireReview struct {
	Product string   `json:"product"`
	Rating  int      `json:"rating"`
	Comment string   `json:"comment,omitempty"`
	Images  []string `json:"images,omitempty"`
}

func wholeUnits(v float64) int64 {
	return int64(math.Round(v))
}
