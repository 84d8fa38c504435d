package pkg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/domain"
)

// PageLimits bounds the page size a caller may request.
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultPageLimits are used when no configuration is supplied.
var DefaultPageLimits = PageLimits{DefaultPageSize: 20, MaxPageSize: 100}

// reservedParams lists query parameter names used for paging and sorting, not for filtering.
var reservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"active":    true,
	"direction": true,
}

// validFieldName matches identifiers, optionally qualified by one table or alias.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// ValidFieldName reports whether name is safe to splice into SQL as a column reference.
func ValidFieldName(name string) bool {
	return validFieldName.MatchString(name)
}

// NormalizeDirection lowercases d and returns it when it is "asc" or "desc",
// or "" otherwise.
func NormalizeDirection(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == "asc" || d == "desc" {
		return d
	}
	return ""
}

// ParsePageRequest extracts paging, sorting and filtering parameters from the query string.
// Sorting is only requested when both "active" and a valid "direction" are given.
func ParsePageRequest(c *gin.Context, limits PageLimits) domain.PageRequest {
	if limits.DefaultPageSize <= 0 {
		limits = DefaultPageLimits
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(limits.DefaultPageSize)))
	if pageSize < 1 {
		pageSize = limits.DefaultPageSize
	}
	if limits.MaxPageSize > 0 && pageSize > limits.MaxPageSize {
		pageSize = limits.MaxPageSize
	}

	active := strings.TrimSpace(c.Query("active"))
	direction := NormalizeDirection(c.Query("direction"))
	if active == "" || direction == "" {
		active, direction = "", ""
	}

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] {
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filter[key] = values[0]
		}
	}

	return domain.PageRequest{
		Page:      page,
		PageSize:  pageSize,
		Active:    active,
		Direction: direction,
		Filter:    filter,
	}
}

// Offset returns the row offset of the requested page.
func Offset(req domain.PageRequest) int {
	if req.Page < 1 {
		return 0
	}
	return (req.Page - 1) * req.PageSize
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET based on the page request.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(Offset(req)).Limit(req.PageSize)
	}
}

// Sort returns a GORM scope ordering by the requested column.
// Columns outside allowed or not matching the identifier pattern are ignored.
func Sort(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		direction := NormalizeDirection(req.Direction)
		if direction == "" || !ValidFieldName(req.Active) || !slices.Contains(allowed, req.Active) {
			return db
		}
		return db.Order(req.Active + " " + direction)
	}
}

// Filter returns a GORM scope that applies WHERE conditions based on the page request filters.
// Only filter keys present in the allowed list are applied; others are silently ignored.
// Keys ending with "__like" produce a LIKE '%value%' condition; others use exact match.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for key, value := range req.Filter {
			field, like := strings.CutSuffix(key, "__like")
			if !ValidFieldName(field) || !slices.Contains(allowed, field) {
				continue
			}
			if like {
				db = db.Where(field+" LIKE ?", "%"+value+"%")
			} else {
				db = db.Where(field+" = ?", value)
			}
		}
		return db
	}
}

// NewPage creates a PageResult with computed TotalPages.
func NewPage[T any](items []T, total int64, req domain.PageRequest) *domain.PageResult[T] {
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	}

	if items == nil {
		items = []T{}
	}

	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}
