package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/camlsync/camlsync/internal/camlerrors"
	"github.com/camlsync/camlsync/internal/composer"
	"github.com/camlsync/camlsync/internal/serverstore"
	"github.com/camlsync/camlsync/internal/versiondiff"
)

// tokenAuth checks ?token=<tok> against the server's configured token on
// every request; mismatch yields 401 "Unauthorized Access" per §4.8.
func tokenAuth(store *serverstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := store.Config()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server not initialized"})
			return
		}
		if c.Query("token") != cfg.Token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized Access"})
			return
		}
		c.Next()
	}
}

func handleVersion(store *serverstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := store.Config()
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"version": cfg.Version})
	}
}

func handleGetDiff(store *serverstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, ok := parseFromParam(c)
		if !ok {
			return
		}

		cfg, err := store.Config()
		if err != nil {
			respondError(c, err)
			return
		}
		if from > cfg.Version {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from exceeds current version"})
			return
		}

		to := cfg.Version
		if raw, present := c.GetQuery("to"); present {
			parsed, err := parseNonNegativeInt(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a non-negative integer"})
				return
			}
			if parsed > cfg.Version || parsed < from {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to out of range"})
				return
			}
			to = parsed
		}

		vd, err := composer.Compose(store, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, vd)
	}
}

func handlePostDiff(store *serverstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var vd versiondiff.VersionDiff
		if err := c.ShouldBindJSON(&vd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed version diff"})
			return
		}

		newVersion, err := store.Append(vd)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"version": newVersion})
	}
}

func handleHistory(store *serverstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.History()
		if err != nil {
			respondError(c, err)
			return
		}

		log := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			log = append(log, gin.H{"version": e.Version, "timestamp": e.Timestamp})
		}
		c.JSON(http.StatusOK, gin.H{"log": log})
	}
}

func parseFromParam(c *gin.Context) (int, bool) {
	raw, present := c.GetQuery("from")
	if !present {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from is required"})
		return 0, false
	}
	from, err := parseNonNegativeInt(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a non-negative integer"})
		return 0, false
	}
	return from, true
}

func parseNonNegativeInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, errInvalidInt
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errInvalidInt
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errInvalidInt = errors.New("invalid integer")

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, camlerrors.ErrNotInitialized):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server not initialized"})
	case errors.Is(err, camlerrors.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, camlerrors.ErrFileNotFound), errors.Is(err, camlerrors.ErrMalformedDiff):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
