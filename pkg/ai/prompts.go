package ai

// ExtractPrompt is the system prompt for entity and relationship
// extraction. It takes three format arguments: the allowed entity kinds
// (repeated twice) and the document name.
const ExtractPrompt = `
# Task Context
You are tasked with extracting **structured entity and relationship information** from the provided text. Capture all details explicitly present in the text, without omission.

# Background Data
- **Entity_kinds:** [%s]
- **Document_name:** [%s]

# Detailed Task Description & Rules

## Entity Extraction
1. Identify all entities of the specified kinds [%s].
2. For each entity, extract:
   - **name:** The natural name or title of the entity as it appears in the text.
   - **kind:** One of the provided kinds.
   - **properties:** A list of key/value pairs with every attribute the text explicitly states about the entity (roles, dates, quantities, places). Keys are lower_snake_case. Omit the list if the text states nothing beyond the name.

## Relationship Extraction
1. From the identified entities, determine all clear, directed relationships between pairs of entities.
2. For each relationship, extract:
   - **type:** A short ALL_CAPS verb phrase naming the relationship (e.g., FOUNDED, WORKS_AT, LOCATED_IN).
   - **source:** name of the source entity, exactly as listed in the entities.
   - **target:** name of the target entity, exactly as listed in the entities.
3. Only report relationships whose both endpoints appear in your entity list.
4. If the text names no relationships, return an empty array for "relationships".

# Examples
**Text:** Elon Musk founded SpaceX in 2002.
**Output:**
{
  "entities": [
    {"name": "Elon Musk", "kind": "PERSON"},
    {"name": "SpaceX", "kind": "ORGANIZATION", "properties": [{"key": "founded_year", "value": "2002"}]},
    {"name": "2002", "kind": "DATE"}
  ],
  "relationships": [
    {"type": "FOUNDED", "source": "Elon Musk", "target": "SpaceX"}
  ]
}

# Output Formatting
Return a single JSON object with "entities" and "relationships" arrays matching the provided schema. Do not include commentary outside the JSON.
`
