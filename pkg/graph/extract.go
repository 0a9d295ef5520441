package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/logger"
)

type extractProperty struct {
	Key   string `json:"key" jsonschema_description:"Name of the attribute, lowercase snake_case"`
	Value string `json:"value" jsonschema_description:"Value of the attribute as plain text"`
}

type extractEntity struct {
	Name       string            `json:"name" jsonschema_description:"Natural name or title of the entity as it appears in the text"`
	Kind       string            `json:"kind" jsonschema_description:"One of the allowed entity kinds"`
	Properties []extractProperty `json:"properties" jsonschema_description:"Attributes of the entity found in the text"`
}

type extractRelationship struct {
	Type   string `json:"type" jsonschema_description:"Relationship type in ALL CAPS, for example FOUNDED or LOCATED_IN"`
	Source string `json:"source" jsonschema_description:"Name of the source entity, must match an extracted entity"`
	Target string `json:"target" jsonschema_description:"Name of the target entity, must match an extracted entity"`
}

type extractResponse struct {
	Entities      []extractEntity       `json:"entities" jsonschema_description:"All entities found in the text"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"All relationships between the extracted entities"`
}

// ExtractChunk asks the model for the entities and relationships in one
// chunk. Relationships whose endpoints are not among the returned
// entities are dropped, the model occasionally references names it
// never extracted.
func (g *GraphClient) ExtractChunk(
	ctx context.Context,
	aiClient ai.Client,
	chunk common.Chunk,
) ([]common.Entity, []common.Relationship, error) {
	kinds := strings.Join(g.entityKinds, ", ")
	systemPrompt := fmt.Sprintf(ai.ExtractPrompt, kinds, chunk.Source, kinds)

	response := extractResponse{}
	err := aiClient.GenerateCompletionWithFormat(
		ctx,
		"knowledge_graph",
		"Entities and relationships extracted from a document chunk",
		chunk.Text,
		&response,
		ai.WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return nil, nil, &common.ExtractionError{
			Source:        chunk.Source,
			SequenceIndex: chunk.SequenceIndex,
			Err:           err,
		}
	}

	entities := make([]common.Entity, 0, len(response.Entities))
	byName := make(map[string]*common.Entity, len(response.Entities))
	for _, raw := range response.Entities {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		properties := make(map[string]string, len(raw.Properties))
		for _, prop := range raw.Properties {
			key := strings.TrimSpace(prop.Key)
			if key == "" {
				continue
			}
			properties[key] = prop.Value
		}
		entities = append(entities, common.Entity{
			Key:        name,
			Kind:       raw.Kind,
			Properties: properties,
			ChunkID:    chunk.ID,
		})
		byName[strings.ToUpper(name)] = &entities[len(entities)-1]
	}

	relations := make([]common.Relationship, 0, len(response.Relationships))
	for _, raw := range response.Relationships {
		source, ok := byName[strings.ToUpper(strings.TrimSpace(raw.Source))]
		if !ok {
			logger.Debug("dropping relationship with unknown source", "type", raw.Type, "source", raw.Source)
			continue
		}
		target, ok := byName[strings.ToUpper(strings.TrimSpace(raw.Target))]
		if !ok {
			logger.Debug("dropping relationship with unknown target", "type", raw.Type, "target", raw.Target)
			continue
		}
		relations = append(relations, common.Relationship{
			Type:    raw.Type,
			Source:  source,
			Target:  target,
			ChunkID: chunk.ID,
		})
	}

	return entities, relations, nil
}
