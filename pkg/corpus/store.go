// Package corpus holds the collected video and user records that discovery
// phases produce and the aggregation engine consumes.
package corpus

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/db/models"
)

// Store is the process-wide corpus: created empty at startup, appended to by
// discovery phases, read by analysis and export, cleared by Reset. When a
// database handle is supplied, records are additionally upserted there so the
// corpus survives restarts.
type Store struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	db     *gorm.DB // nil means in-memory only

	videos     []browser.VideoCard
	videoIndex map[string]int // normalized URL -> position in videos
	users      []browser.UserCard
	userIndex  map[string]int
}

func NewStore(logger *logrus.Logger, db *gorm.DB) *Store {
	return &Store{
		logger:     logger,
		db:         db,
		videoIndex: make(map[string]int),
		userIndex:  make(map[string]int),
	}
}

// AddVideos appends discovered videos, deduping by normalized URL. A card
// seen again replaces the stored copy in place so fresher counters win.
// Returns the number of newly added records.
func (s *Store) AddVideos(cards []browser.VideoCard, keyword string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, card := range cards {
		url := browser.NormalizeURL(card.VideoURL)
		if url == "" {
			continue
		}
		if i, ok := s.videoIndex[url]; ok {
			s.videos[i] = card
		} else {
			s.videoIndex[url] = len(s.videos)
			s.videos = append(s.videos, card)
			added++
		}
		s.persistVideo(card, url, keyword)
	}

	if added > 0 {
		s.logger.WithFields(logrus.Fields{
			"added":   added,
			"keyword": keyword,
			"total":   len(s.videos),
		}).Debug("Videos added to corpus")
	}
	return added
}

// AddUsers appends discovered user cards, deduping by profile link.
func (s *Store) AddUsers(cards []browser.UserCard, keyword string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, card := range cards {
		key := browser.NormalizeURL(card.UserLink)
		if key == "" {
			key = card.Title
		}
		if key == "" {
			continue
		}
		if i, ok := s.userIndex[key]; ok {
			s.users[i] = card
		} else {
			s.userIndex[key] = len(s.users)
			s.users = append(s.users, card)
			added++
		}
		s.persistUser(card, key, keyword)
	}
	return added
}

// SetCommentCount records how many comments a harvest extracted for a video,
// so the front end can rank by it.
func (s *Store) SetCommentCount(videoURL string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	url := browser.NormalizeURL(videoURL)
	if _, ok := s.videoIndex[url]; !ok {
		return
	}

	if s.db != nil {
		err := s.db.Model(&models.CollectedVideo{}).
			Where("video_url = ?", url).
			Update("comment_count", count).Error
		if err != nil {
			s.logger.WithError(err).WithField("video_url", url).Warn("Failed to persist comment count")
		}
	}
}

// Videos returns a copy of the collected videos, oldest first.
func (s *Store) Videos() []browser.VideoCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]browser.VideoCard, len(s.videos))
	copy(out, s.videos)
	return out
}

// Users returns a copy of the collected user cards, oldest first.
func (s *Store) Users() []browser.UserCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]browser.UserCard, len(s.users))
	copy(out, s.users)
	return out
}

// Counts reports the corpus sizes.
func (s *Store) Counts() (videos, users int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos), len(s.users)
}

// Reset clears the in-memory corpus. Persisted rows are kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos = nil
	s.users = nil
	s.videoIndex = make(map[string]int)
	s.userIndex = make(map[string]int)
	s.logger.Info("Corpus reset")
}

// persistVideo upserts the card. Persistence is best effort: a failing
// database never fails a collection task.
func (s *Store) persistVideo(card browser.VideoCard, url, keyword string) {
	if s.db == nil {
		return
	}
	record := models.CollectedVideo{
		VideoURL:    url,
		CoverImage:  card.CoverImage,
		Title:       card.Title,
		Author:      card.Author,
		PublishTime: card.PublishTime,
		Likes:       card.Likes,
		Keyword:     keyword,
		CollectedAt: time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_url"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "author", "publish_time", "likes", "keyword", "collected_at"}),
	}).Create(&record).Error
	if err != nil {
		s.logger.WithError(fmt.Errorf("persist video: %w", err)).WithField("video_url", url).Warn("Corpus persistence failed")
	}
}

func (s *Store) persistUser(card browser.UserCard, key, keyword string) {
	if s.db == nil {
		return
	}
	record := models.CollectedUser{
		UserLink:    key,
		Title:       card.Title,
		DouyinID:    card.DouyinID,
		Likes:       card.Likes,
		Followers:   card.Followers,
		Description: card.Description,
		AvatarURL:   card.AvatarURL,
		Keyword:     keyword,
		CollectedAt: time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_link"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "douyin_id", "likes", "followers", "description", "keyword", "collected_at"}),
	}).Create(&record).Error
	if err != nil {
		s.logger.WithError(fmt.Errorf("persist user: %w", err)).WithField("user_link", key).Warn("Corpus persistence failed")
	}
}
