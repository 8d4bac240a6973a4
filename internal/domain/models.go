package domain

import "time"

// DefaultQuizPoints is credited when a quiz carries no positive reward.
const DefaultQuizPoints = 10

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// Question is rendered to members; submissions are never graded against it.
type Question struct {
	ID      string   `json:"id" bson:"id"`
	Prompt  string   `json:"prompt" bson:"prompt"`
	Options []Option `json:"options,omitempty" bson:"options,omitempty"`
}

// Quiz is a CMS-authored set of questions attached to a blog post.
type Quiz struct {
	ID        string     `json:"id" bson:"_id"`
	Title     string     `json:"title,omitempty" bson:"title,omitempty"`
	Questions []Question `json:"questions" bson:"questions"`
	Points    int        `json:"points,omitempty" bson:"points,omitempty"` // defaults to 10 if zero
}

// Reward returns the points credited for a first completion.
func (q Quiz) Reward() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultQuizPoints
}

// QuizCompletion records that a quiz was credited for a member.
type QuizCompletion struct {
	QuizID      string    `json:"quizId" bson:"quizId"`
	Score       int       `json:"score" bson:"score"`
	CompletedAt time.Time `json:"completedAt" bson:"completedAt"`
}

// BlogCompletion records the first credited quiz on a blog.
type BlogCompletion struct {
	BlogID      string    `json:"blog" bson:"blog"`
	Score       int       `json:"score" bson:"score"`
	CompletedAt time.Time `json:"completedAt" bson:"completedAt"`
}

// Member is the aggregate owning the wallet and completion history.
// Version is bumped by stores on every successful update.
type Member struct {
	ID                      string           `json:"id" bson:"_id"`
	Email                   string           `json:"email,omitempty" bson:"email,omitempty"`
	Name                    string           `json:"name,omitempty" bson:"name,omitempty"`
	Wallet                  int              `json:"wallet" bson:"wallet"`
	CompletedQuizzes        []QuizCompletion `json:"completedQuizIds" bson:"completedQuizIds"`
	CompletedBlogs          []BlogCompletion `json:"completedBlogs" bson:"completedBlogs"`
	EmailVerified           bool             `json:"emailVerified" bson:"emailVerified"`
	VerificationToken       string           `json:"verificationToken,omitempty" bson:"verificationToken,omitempty"`
	VerificationTokenExpiry *time.Time       `json:"verificationTokenExpiry,omitempty" bson:"verificationTokenExpiry,omitempty"`
	Version                 int64            `json:"version" bson:"version"`
}

// CompletedQuiz returns the completion record for quizID, if any.
func (m Member) CompletedQuiz(quizID string) (QuizCompletion, bool) {
	for _, c := range m.CompletedQuizzes {
		if c.QuizID == quizID {
			return c, true
		}
	}
	return QuizCompletion{}, false
}

// CompletedQuizSet returns the IDs of every credited quiz.
func (m Member) CompletedQuizSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.CompletedQuizzes))
	for _, c := range m.CompletedQuizzes {
		set[c.QuizID] = struct{}{}
	}
	return set
}

// Credit applies a first-completion reward. It is the only code path that
// changes the wallet or the completion history.
func (m *Member) Credit(quizID, blogID string, points int, now time.Time) error {
	if _, ok := m.CompletedQuiz(quizID); ok {
		return ErrDuplicateCompletion
	}
	if points < 0 {
		points = 0
	}
	if m.Wallet < 0 {
		m.Wallet = 0
	}
	m.Wallet += points

	quizzes := make([]QuizCompletion, 0, len(m.CompletedQuizzes)+1)
	for _, c := range m.CompletedQuizzes {
		if c.QuizID != quizID {
			quizzes = append(quizzes, c)
		}
	}
	m.CompletedQuizzes = append(quizzes, QuizCompletion{QuizID: quizID, Score: points, CompletedAt: now})

	for _, b := range m.CompletedBlogs {
		if b.BlogID == blogID {
			return nil
		}
	}
	m.CompletedBlogs = append(m.CompletedBlogs, BlogCompletion{BlogID: blogID, Score: points, CompletedAt: now})
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (m Member) Clone() Member {
	out := m
	out.CompletedQuizzes = append([]QuizCompletion(nil), m.CompletedQuizzes...)
	out.CompletedBlogs = append([]BlogCompletion(nil), m.CompletedBlogs...)
	if m.VerificationTokenExpiry != nil {
		expiry := *m.VerificationTokenExpiry
		out.VerificationTokenExpiry = &expiry
	}
	return out
}

// Category groups blogs.
type Category struct {
	ID    string `json:"id" bson:"id"`
	Title string `json:"title" bson:"title"`
	Slug  string `json:"slug" bson:"slug"`
}

// BlogStatusPublished is the only status visible to members.
const BlogStatusPublished = "published"

// Blog is a CMS article with attached quizzes.
type Blog struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Slug      string    `json:"slug" bson:"slug"`
	Excerpt   string    `json:"excerpt" bson:"excerpt"`
	ReadTime  int       `json:"readTime" bson:"readTime"`
	Status    string    `json:"status" bson:"status"`
	Category  *Category `json:"category,omitempty" bson:"category,omitempty"`
	QuizIDs   []string  `json:"quizzes" bson:"quizzes"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AttemptSubmission is a quiz attempt as decoded from the request body.
type AttemptSubmission struct {
	QuizID  string
	BlogID  string
	Answers []any
}

// AttemptResult summarizes a quiz submission.
type AttemptResult struct {
	Score        int     `json:"score"`
	Total        int     `json:"total"`
	PointsEarned int     `json:"pointsEarned"`
	Member       *Member `json:"member,omitempty"`
	Duplicate    bool    `json:"-"`
}

// Article is the listing projection of a blog with quiz counters.
type Article struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Excerpt          string    `json:"excerpt"`
	ReadTime         int       `json:"readTime"`
	TotalQuizzes     int       `json:"totalQuizzes"`
	RemainingQuizzes int       `json:"remainingQuizzes"`
	Category         *Category `json:"category"`
}

// ArticlePage is one page of available articles.
type ArticlePage struct {
	Articles    []Article `json:"articles"`
	Total       int       `json:"total"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}

// WalletUpdate is broadcast after a member is credited.
type WalletUpdate struct {
	MemberID     string    `json:"memberId"`
	QuizID       string    `json:"quizId"`
	Wallet       int       `json:"wallet"`
	PointsEarned int       `json:"pointsEarned"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// QuizCompletedEvent is published to downstream consumers after a credit.
type QuizCompletedEvent struct {
	MemberID     string    `json:"memberId"`
	QuizID       string    `json:"quizId"`
	BlogID       string    `json:"blogId"`
	PointsEarned int       `json:"pointsEarned"`
	Wallet       int       `json:"wallet"`
	CompletedAt  time.Time `json:"completedAt"`
}

// CatalogQuery filters and paginates the available-quiz listing.
type CatalogQuery struct {
	Search       string
	CategorySlug string
	Page         int
	Limit        int
}

// BlogFilter narrows the candidate blogs fetched from the catalog store.
type BlogFilter struct {
	Search     string
	CategoryID string
}
