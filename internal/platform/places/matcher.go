package places

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// APITypes is the set of valid Google Places API "types".
// https://developers.google.com/maps/documentation/places/web-service/supported_types
var APITypes = []string{
	"accounting", "airport", "amusement_park", "aquarium", "art_gallery",
	"atm", "bakery", "bank", "bar", "beauty_salon", "bicycle_store",
	"book_store", "bowling_alley", "bus_station", "cafe", "campground",
	"car_dealer", "car_rental", "car_repair", "car_wash", "casino",
	"cemetery", "church", "city_hall", "clothing_store", "convenience_store",
	"courthouse", "dentist", "department_store", "doctor", "drugstore",
	"electrician", "electronics_store", "embassy", "fire_station", "florist",
	"funeral_home", "furniture_store", "gas_station", "gym", "hair_care",
	"hardware_store", "hindu_temple", "home_goods_store", "hospital",
	"insurance_agency", "jewelry_store", "laundry", "lawyer", "library",
	"light_rail_station", "liquor_store", "local_government_office",
	"locksmith", "lodging", "meal_delivery", "meal_takeaway", "mosque",
	"movie_rental", "movie_theater", "moving_company", "museum",
	"night_club", "painter", "park", "parking", "pet_store", "pharmacy",
	"physiotherapist", "plumber", "police", "post_office", "primary_school",
	"real_estate_agency", "restaurant", "roofing_contractor", "rv_park",
	"school", "secondary_school", "shoe_store", "shopping_mall", "spa",
	"stadium", "storage", "store", "subway_station", "supermarket",
	"synagogue", "taxi_stand", "tourist_attraction", "train_station",
	"transit_station", "travel_agency", "university", "veterinary_care",
	"zoo",
}

// Matcher maps free-text interest phrases onto valid Places API types using
// an LLM with a structured (JSON schema) response.
type Matcher struct {
	client *openai.Client
	model  string
}

func NewMatcher(apiKey, model string) *Matcher {
	return NewMatcherWithClient(openai.NewClient(apiKey), model)
}

// NewMatcherWithClient injects the OpenAI client, used by tests to point at
// a stub server.
func NewMatcherWithClient(client *openai.Client, model string) *Matcher {
	return &Matcher{client: client, model: model}
}

type typeList struct {
	Types []string `json:"types"`
}

// Match converts each input word or phrase into related Places types. The
// model is asked for one type per input; anything outside APITypes is
// dropped from the result.
func (m *Matcher) Match(ctx context.Context, inputs []string) ([]string, error) {
	schema, err := jsonschema.GenerateSchemaForType(typeList{})
	if err != nil {
		return nil, fmt.Errorf("build response schema: %w", err)
	}

	validTypes, _ := json.Marshal(APITypes)
	inputJSON, _ := json.Marshal(inputs)

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					`Convert the input words or phrases into a list of all related Google Places "types" at a ratio of 1 input to 1 Google Place "type". Here are the valid "types": %s`,
					validTypes,
				),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Input list: %s", inputJSON),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "google_places_type_list",
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("match places types: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("match places types: empty completion")
	}

	var out typeList
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode places types: %w", err)
	}
	return filterValid(out.Types), nil
}

func filterValid(in []string) []string {
	valid := make(map[string]struct{}, len(APITypes))
	for _, t := range APITypes {
		valid[t] = struct{}{}
	}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if _, ok := valid[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
