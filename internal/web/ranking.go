package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type rankingData struct {
	Factors []models.Factor
	Factor  *models.Factor
	Ranked  []models.FactorScore
	NoScore []models.FactorScore
}

// handleRanking renders the drag-order ranking page for one relative-mode
// factor. Rows with rank 0 sit in the "does not apply" bucket; unranked rows
// join the ranked list at the bottom.
func handleRanking(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		factors, err := backlog.RelativeFactors(gdb)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		data := rankingData{Factors: factors}

		if len(factors) > 0 {
			factor := &factors[0]
			if raw := c.Query("factor"); raw != "" {
				id, err := strconv.ParseUint(raw, 10, 32)
				if err != nil {
					renderError(c, http.StatusBadRequest, fmt.Errorf("invalid factor %q", raw))
					return
				}
				factor = nil
				for i := range factors {
					if factors[i].ID == uint(id) {
						factor = &factors[i]
						break
					}
				}
				if factor == nil {
					renderError(c, http.StatusNotFound, fmt.Errorf("no relative factor %d", id))
					return
				}
			}
			data.Factor = factor

			if err := ensureRowsForAll(gdb, factor.ID); err != nil {
				renderError(c, http.StatusInternalServerError, err)
				return
			}
			rows, err := backlog.RankedStories(gdb, factor.ID)
			if err != nil {
				renderError(c, http.StatusInternalServerError, err)
				return
			}
			for _, row := range rows {
				if row.Rank != nil && *row.Rank == 0 {
					data.NoScore = append(data.NoScore, row)
				} else {
					data.Ranked = append(data.Ranked, row)
				}
			}
		}

		c.HTML(http.StatusOK, "ranking.html", data)
	}
}

// ensureRowsForAll creates missing score rows so every active story appears
// on the ranking page.
func ensureRowsForAll(gdb *gorm.DB, factorID uint) error {
	var ids []uint
	err := gdb.Model(&models.Story{}).
		Where("archived = ?", false).
		Where("id NOT IN (SELECT story_id FROM factor_scores WHERE factor_id = ?)", factorID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("backlog: unranked stories: %w", err)
	}
	for _, id := range ids {
		if err := backlog.EnsureScoreRows(gdb, id); err != nil {
			return err
		}
	}
	return nil
}

type rankingSaveRequest struct {
	FactorID uint   `json:"factor_id" binding:"required"`
	Ranked   []uint `json:"ranked"`
	NoScore  []uint `json:"no_score"`
}

// handleRankingSave persists the drag order: ranks 1..N for the ranked list,
// rank 0 for the "does not apply" bucket.
func handleRankingSave(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rankingSaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := backlog.SaveRanks(gdb, req.FactorID, req.Ranked, req.NoScore); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
