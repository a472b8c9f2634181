// Package ai turns a natural-language question into a narrated answer,
// optionally generating and executing SQL through the bridge along the way.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"astral-server/internal/bridge"
)

// Executor is the slice of the bridge client the assistant needs.
type Executor interface {
	FetchSchema(ctx context.Context) bridge.Result
	ExecuteQuery(ctx context.Context, query string) bridge.Result
}

// ChatResult is the outcome of one chat turn. The assistant never returns an
// error: downstream failures become a Success=false result so the enclosing
// request can still answer.
type ChatResult struct {
	Response    string
	SQLQuery    *string
	QueryResult *bridge.Result
	Success     bool
}

type Assistant struct {
	generator Generator
}

func NewAssistant(generator Generator) *Assistant {
	return &Assistant{generator: generator}
}

const noTablesResponse = "I connected to your database but could not find any tables. " +
	"Make sure the database contains tables, or try a different database."

// ProcessChat runs the full orchestration: explore the database, prompt the
// model, extract and execute any suggested SQL, and narrate the result.
func (a *Assistant) ProcessChat(ctx context.Context, userQuery string, executor Executor) ChatResult {
	exploration := a.explore(ctx, executor)
	if exploration.noTables {
		return ChatResult{Response: noTablesResponse, Success: true}
	}
	if exploration.err != nil {
		return failure(exploration.err)
	}

	prompt := buildAdaptivePrompt(userQuery, exploration)
	response, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return failure(err)
	}
	response = strings.TrimSpace(response)

	result := ChatResult{Response: response, Success: true}

	sqlQuery := ExtractSQL(response)
	if sqlQuery == "" {
		return result
	}
	result.SQLQuery = &sqlQuery

	queryResult := executor.ExecuteQuery(ctx, sqlQuery)
	result.QueryResult = &queryResult

	if queryResult.Success && len(queryResult.Data) > 0 {
		result.Response = a.enhanceWithData(ctx, response, queryResult.Data, userQuery)
	} else if queryResult.Success {
		result.Response = response + "\n\nNo data matched those criteria."
	}
	return result
}

func failure(err error) ChatResult {
	return ChatResult{
		Response: fmt.Sprintf("Sorry, something went wrong on my side: %v", err),
		Success:  false,
	}
}

type tableContent struct {
	Columns    []string                 `json:"columns"`
	SampleData []map[string]interface{} `json:"sample_data,omitempty"`
	SampleSize int                      `json:"sample_size"`
}

type exploration struct {
	tables   []string
	content  map[string]tableContent
	insights []string
	noTables bool
	err      error
}

// explore fetches the schema and samples up to 3 rows per table so the
// prompt can describe actual content, not just structure. Per-table sample
// failures are skipped.
func (a *Assistant) explore(ctx context.Context, executor Executor) exploration {
	schemaResult := executor.FetchSchema(ctx)
	if !schemaResult.Success {
		return exploration{err: fmt.Errorf("schema discovery failed: %s", schemaResult.Message)}
	}
	if len(schemaResult.Schema) == 0 {
		return exploration{noTables: true}
	}

	ex := exploration{content: make(map[string]tableContent)}
	for name, table := range schemaResult.Schema {
		ex.tables = append(ex.tables, name)

		sample := executor.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 3", name))
		if !sample.Success {
			log.Printf("ai: could not sample table %s: %s", name, sample.Message)
			ex.content[name] = tableContent{Columns: table.Columns}
			continue
		}
		ex.content[name] = tableContent{
			Columns:    table.Columns,
			SampleData: sample.Data,
			SampleSize: len(sample.Data),
		}
		if len(sample.Data) > 0 {
			ex.insights = append(ex.insights,
				fmt.Sprintf("Table %s: %d sample records with columns %v", name, len(sample.Data), table.Columns))
		}
	}
	return ex
}

func buildAdaptivePrompt(userQuery string, ex exploration) string {
	contentJSON, _ := json.MarshalIndent(ex.content, "", "  ")

	context := fmt.Sprintf("The database has %d tables: %s", len(ex.tables), strings.Join(ex.tables, ", "))
	if len(ex.insights) > 0 {
		context += "\n\nDetected sample data:\n" + strings.Join(ex.insights, "\n")
	}

	return fmt.Sprintf(`You are a flexible, adaptive AI assistant for databases. The user can ask anything, and you should respond in the most helpful way given the database at hand.

DATABASE CONTEXT:
%s

DATABASE CONTENT DETAIL:
%s

USER QUESTION: %q

INSTRUCTIONS:
1. Understand the user's intent: do they need data, an explanation, technical help, or something else?
2. Adapt your answer to what is actually available in the database.
3. If data would help, suggest a useful SQL query inline as [SQL: SELECT ...].
4. If the question is unrelated to the data, give a generally helpful answer without a query.
5. If you do not understand, say so honestly and offer an alternative.
6. Always be helpful, informative and natural.

EXAMPLES:
User: "how many sales in total?"
You: "Let me check your sales data. [SQL: SELECT COUNT(*) FROM sales]"

User: "which tables are there?"
You: "Your database has 3 tables: products, customers, orders. Which one would you like to look at?"

User: "hello"
You: "Hello! I'm ready to help you analyze your data. What would you like to know?"

FORMAT:
- Natural conversation, explain what you are doing.
- Include data when you have it, and offer a follow-up.

YOUR RESPONSE:`, context, contentJSON, userQuery)
}

var (
	fencedSQLPattern  = regexp.MustCompile("(?s)```sql\\s*(.*?)\\s*```")
	bracketSQLPattern = regexp.MustCompile(`\[SQL:\s*(.*?)\]`)
)

// ExtractSQL pulls a SQL statement out of model output: a fenced code block
// tagged sql first, then a bracketed [SQL: ...] marker. Absence is not an
// error; the free text stands as the answer.
func ExtractSQL(response string) string {
	if m := fencedSQLPattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bracketSQLPattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// enhanceWithData asks the model to rewrite its narrative using the rows the
// query actually returned. If that second call fails, the original narrative
// is kept with a literal record count appended.
func (a *Assistant) enhanceWithData(ctx context.Context, original string, data []map[string]interface{}, userQuery string) string {
	dataJSON, _ := json.MarshalIndent(data, "", "  ")

	prompt := fmt.Sprintf(`ORIGINAL AI RESPONSE: %s

ACTUAL QUERY RESULT: %s

USER QUESTION: %q

Task: improve the AI response by weaving in the actual data above.
Make it more informative and accurate, and keep the natural conversational tone.

IMPROVED RESPONSE:`, original, dataJSON, userQuery)

	enhanced, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("ai: enhance call failed: %v", err)
		return fmt.Sprintf("%s\n\nFound %d records.", original, len(data))
	}
	return strings.TrimSpace(enhanced)
}
