package middleware

import (
	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/gofiber/fiber/v2"
)

const (
	sqlLogKey   = "sqlQueryLog"
	sqlStartKey = "sqlQueryStart"
)

// SQLDebugMiddleware marks where the query log stood when the request
// arrived, so pages can list the statements they ran with RequestQueries
func SQLDebugMiddleware(queries *database.QueryLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(sqlLogKey, queries)
		c.Locals(sqlStartKey, queries.Count())
		return c.Next()
	}
}

// RequestQueries returns the statements recorded since the request arrived,
// newest first. Concurrent requests may interleave.
func RequestQueries(c *fiber.Ctx) []database.QueryLog {
	queries, ok := c.Locals(sqlLogKey).(*database.QueryLogger)
	if !ok {
		return nil
	}
	start, _ := c.Locals(sqlStartKey).(int)
	return queries.Recent(queries.Count() - start)
}

// SQLPanel adds the SQL panel fields to template data
func SQLPanel(c *fiber.Ctx, data fiber.Map) fiber.Map {
	executed := RequestQueries(c)
	data["SQLQueries"] = executed
	data["TotalSQLQueries"] = len(executed)
	return data
}
