package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates pattern and logs instead of failing.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", helper.Key(pattern))
	}
}

// SafeDelete deletes keys and logs instead of failing.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// Cache key builders shared by writers and invalidators.

func ResponseKey(responseID string) string {
	return "id:" + responseID
}

func AssessmentKey(assessmentID uint) string {
	return fmt.Sprintf("id:%d", assessmentID)
}

func ExamineeKey(examineeID string) string {
	return "id:" + examineeID
}

func UserKey(userID string) string {
	return "id:" + userID
}

// InvalidateResponseCache drops a cached response. Called after every status
// change or answer submission.
func InvalidateResponseCache(ctx context.Context, cm *CacheManager, responseID string) {
	SafeDelete(ctx, cm.Response, ResponseKey(responseID))
}

// InvalidateAssessmentCache drops an assessment along with every cached
// response, since responses embed their assessment's questions.
func InvalidateAssessmentCache(ctx context.Context, cm *CacheManager, assessmentID uint) {
	SafeDelete(ctx, cm.Assessment, AssessmentKey(assessmentID))
	SafeInvalidatePattern(ctx, cm.Response, "*")
}

func InvalidateExamineeCache(ctx context.Context, cm *CacheManager, examineeID string) {
	SafeDelete(ctx, cm.Examinee, ExamineeKey(examineeID))
	SafeInvalidatePattern(ctx, cm.Response, "*")
}

func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, UserKey(userID))
}
