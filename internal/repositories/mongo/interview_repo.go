package mongo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/repositories"
)

// stored shape of an interview. workflow payloads and answer analyses are
// embedded as native documents and arrays
type interviewDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	User              string             `bson:"user"`
	JobRole           string             `bson:"jobRole"`
	TechStack         []string           `bson:"techStack"`
	YearsOfExperience int                `bson:"yearsOfExperience"`
	ResumeURL         string             `bson:"resumeUrl"`
	Questions         []questionDoc      `bson:"questions"`
	WorkflowQuestions interface{}        `bson:"workflowQuestions,omitempty"`
	Status            string             `bson:"status"`
	OverallScore      *float64           `bson:"overallScore,omitempty"`
	Result            string             `bson:"result,omitempty"`
	MentorReviewUsed  bool               `bson:"mentorReviewUsed"`
	MentorAgentReview *reviewDoc         `bson:"mentorAgentReview,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt"`
	CompletedAt       *time.Time         `bson:"completedAt,omitempty"`
}

type questionDoc struct {
	Text     string      `bson:"text"`
	Answer   string      `bson:"answer"`
	Analysis interface{} `bson:"analysis,omitempty"`
}

type reviewDoc struct {
	OverallCritique                     string    `bson:"overallCritique"`
	QuestionQualityIssues               string    `bson:"questionQualityIssues"`
	MissedOpportunities                 string    `bson:"missedOpportunities"`
	RecommendedImprovedQuestions        string    `bson:"recommendedImprovedQuestions"`
	ActionableAdviceForInterviewerAgent string    `bson:"actionableAdviceForInterviewerAgent"`
	CreatedAt                           time.Time `bson:"createdAt"`
}

// Repo wraps the interviews collection
type Repo struct {
	client *Client
	col    *mongo.Collection
}

var _ repositories.InterviewRepository = (*Repo)(nil)

// NewInterviewRepo binds the collection and ensures the lookup indexes exist
func NewInterviewRepo(ctx context.Context, c *Client, collection string) (*Repo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	if collection == "" {
		collection = "interviews"
	}

	r := &Repo{client: c, col: db.Collection(collection)}

	// latest-completed and latest-review lookups both filter by user and sort by createdAt
	_, err = r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) Create(ctx context.Context, interview *models.Interview) (*models.Interview, error) {
	doc, err := toDoc(interview)
	if err != nil {
		return nil, err
	}
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, nil)
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []interviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]models.Interview, 0, len(docs))
	for i := range docs {
		interview, err := fromDoc(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *interview)
	}
	return out, nil
}

func (r *Repo) LatestCompleted(ctx context.Context, userID string) (*models.Interview, error) {
	return r.findOne(ctx, latestCompletedFilter(userID), newestFirst())
}

func (r *Repo) LatestWithMentorReview(ctx context.Context, userID string) (*models.Interview, error) {
	return r.findOne(ctx, bson.M{
		"user":              userID,
		"mentorAgentReview": bson.M{"$exists": true, "$ne": nil},
	}, newestFirst())
}

func (r *Repo) SetResult(ctx context.Context, id string, result models.Result) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"result": string(result)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *Repo) MarkMentorReviewUsed(ctx context.Context, id string, review *models.MentorAgentReview) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repositories.ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, markUsedFilter(oid), markUsedUpdate(review))
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *Repo) SaveMentorReview(ctx context.Context, id string, review *models.MentorAgentReview) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"mentorAgentReview": toReviewDoc(review)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *Repo) CountAwaitingMentorReview(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"status":           string(models.StatusCompleted),
		"mentorReviewUsed": bson.M{"$ne": true},
	})
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Repo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Repo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Interview, error) {
	var doc interviewDoc
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return fromDoc(&doc)
}

func newestFirst() *options.FindOneOptions {
	return options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func latestCompletedFilter(userID string) bson.M {
	return bson.M{"user": userID, "status": string(models.StatusCompleted)}
}

func markUsedFilter(oid primitive.ObjectID) bson.M {
	return bson.M{"_id": oid, "mentorReviewUsed": bson.M{"$ne": true}}
}

func markUsedUpdate(review *models.MentorAgentReview) bson.M {
	set := bson.M{"mentorReviewUsed": true}
	if review != nil {
		set["mentorAgentReview"] = toReviewDoc(review)
	}
	return bson.M{"$set": set}
}

func toDoc(in *models.Interview) (*interviewDoc, error) {
	doc := &interviewDoc{
		User:              in.User,
		JobRole:           in.JobRole,
		TechStack:         in.TechStack,
		YearsOfExperience: in.YearsOfExperience,
		ResumeURL:         in.ResumeURL,
		Questions:         make([]questionDoc, 0, len(in.Questions)),
		Status:            string(in.Status),
		OverallScore:      in.OverallScore,
		Result:            string(in.Result),
		MentorReviewUsed:  in.MentorReviewUsed,
		MentorAgentReview: toReviewDoc(in.MentorAgentReview),
		CreatedAt:         in.CreatedAt,
		CompletedAt:       in.CompletedAt,
	}
	if in.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(in.ID); err == nil {
			doc.ID = oid
		}
	}
	var err error
	if doc.WorkflowQuestions, err = embedJSON(in.WorkflowQuestions); err != nil {
		return nil, fmt.Errorf("workflowQuestions: %w", err)
	}
	for i, q := range in.Questions {
		qd := questionDoc{Text: q.Text, Answer: q.Answer}
		if qd.Analysis, err = embedJSON(q.Analysis); err != nil {
			return nil, fmt.Errorf("questions[%d].analysis: %w", i, err)
		}
		doc.Questions = append(doc.Questions, qd)
	}
	return doc, nil
}

func fromDoc(doc *interviewDoc) (*models.Interview, error) {
	out := &models.Interview{
		ID:                doc.ID.Hex(),
		User:              doc.User,
		JobRole:           doc.JobRole,
		TechStack:         doc.TechStack,
		YearsOfExperience: doc.YearsOfExperience,
		ResumeURL:         doc.ResumeURL,
		Questions:         make([]models.QuestionEntry, 0, len(doc.Questions)),
		Status:            models.Status(doc.Status),
		OverallScore:      doc.OverallScore,
		Result:            models.Result(doc.Result),
		MentorReviewUsed:  doc.MentorReviewUsed,
		MentorAgentReview: fromReviewDoc(doc.MentorAgentReview),
		CreatedAt:         doc.CreatedAt,
		CompletedAt:       doc.CompletedAt,
	}
	var err error
	if out.WorkflowQuestions, err = extractJSON(doc.WorkflowQuestions); err != nil {
		return nil, fmt.Errorf("workflowQuestions: %w", err)
	}
	for i, q := range doc.Questions {
		entry := models.QuestionEntry{Text: q.Text, Answer: q.Answer}
		if entry.Analysis, err = extractJSON(q.Analysis); err != nil {
			return nil, fmt.Errorf("questions[%d].analysis: %w", i, err)
		}
		out.Questions = append(out.Questions, entry)
	}
	return out, nil
}

// embedJSON converts a raw JSON payload into a bson value. The payload is
// wrapped in a field so arrays and scalars decode as well as objects.
func embedJSON(raw json.RawMessage) (interface{}, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	wrapped := make([]byte, 0, len(raw)+6)
	wrapped = append(wrapped, `{"v":`...)
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')

	var holder struct {
		V interface{} `bson:"v"`
	}
	if err := bson.UnmarshalExtJSON(wrapped, false, &holder); err != nil {
		return nil, err
	}
	return holder.V, nil
}

// extractJSON renders a stored bson value back to relaxed JSON.
func extractJSON(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	out, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return nil, err
	}
	var holder struct {
		V json.RawMessage `json:"v"`
	}
	if err := json.Unmarshal(out, &holder); err != nil {
		return nil, err
	}
	return holder.V, nil
}

func toReviewDoc(r *models.MentorAgentReview) *reviewDoc {
	if r == nil {
		return nil
	}
	return &reviewDoc{
		OverallCritique:                     r.OverallCritique,
		QuestionQualityIssues:               r.QuestionQualityIssues,
		MissedOpportunities:                 r.MissedOpportunities,
		RecommendedImprovedQuestions:        r.RecommendedImprovedQuestions,
		ActionableAdviceForInterviewerAgent: r.ActionableAdviceForInterviewerAgent,
		CreatedAt:                           r.CreatedAt,
	}
}

func fromReviewDoc(d *reviewDoc) *models.MentorAgentReview {
	if d == nil {
		return nil
	}
	return &models.MentorAgentReview{
		OverallCritique:                     d.OverallCritique,
		QuestionQualityIssues:               d.QuestionQualityIssues,
		MissedOpportunities:                 d.MissedOpportunities,
		RecommendedImprovedQuestions:        d.RecommendedImprovedQuestions,
		ActionableAdviceForInterviewerAgent: d.ActionableAdviceForInterviewerAgent,
		CreatedAt:                           d.CreatedAt,
	}
}
