package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/JVdev14/ache-pre-os/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinatesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinates",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"price":      &graphql.Field{Type: graphql.Float},
			"store_name": &graphql.Field{Type: graphql.String},
			"category":   &graphql.Field{Type: graphql.String},
			"source":     &graphql.Field{Type: graphql.String},
			"confidence": &graphql.Field{Type: graphql.String},
			"is_real":    &graphql.Field{Type: graphql.Boolean},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"address":     &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: coordinatesType},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"rating":      &graphql.Field{Type: graphql.Float},
			"photo_ref":   &graphql.Field{Type: graphql.String},
			"products":    &graphql.Field{Type: graphql.NewList(productType)},
		},
	})

	quizResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuizResult",
		Fields: graphql.Fields{
			"category":    &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"image_url":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Find establishments near a coordinate, sorted by distance",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 2000.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					places, _ := deps.Search.FindNearby(p.Context,
						domain.Coordinates{Lat: lat, Lon: lon}, radius)
					return places, nil
				},
			},
			"searchByCep": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Find establishments around a Brazilian postal code",
				Args: graphql.FieldConfigArgument{
					"cep":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 2000.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cep := p.Args["cep"].(string)
					radius := p.Args["radius"].(float64)
					result, err := deps.Search.SearchByCEP(p.Context, cep, radius, "")
					if err != nil {
						return nil, err
					}
					return result.Places, nil
				},
			},
			"cities": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Municipality names of a Brazilian state",
				Args: graphql.FieldConfigArgument{
					"uf": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.ListByState(p.Context, p.Args["uf"].(string))
				},
			},
			"categories": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "The closed establishment category set",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return domain.Categories, nil
				},
			},
			"quizResult": &graphql.Field{
				Type:        quizResultType,
				Description: "Evaluate quiz answers to a recommended category",
				Args: graphql.FieldConfigArgument{
					"answers": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.String)),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw := p.Args["answers"].([]interface{})
					answers := make([]string, 0, len(raw))
					for _, a := range raw {
						if s, ok := a.(string); ok {
							answers = append(answers, s)
						}
					}
					return deps.Quiz.Recommend(p.Context, answers)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
