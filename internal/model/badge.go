package model

// BadgeKind 徽章的判定维度
type BadgeKind string

const (
	BadgeKindQuests     BadgeKind = "quests"
	BadgeKindStreak     BadgeKind = "streak"
	BadgeKindCategory   BadgeKind = "category"
	BadgeKindDifficulty BadgeKind = "difficulty"
)

// Badge 静态徽章定义。阈值比较统一为 >=，且全部基于单调不减的统计量：
// streak 类徽章对照的是历史最长连续天数（高水位），不是当前连续天数，
// 因此一旦解锁不会因断签被收回。
type Badge struct {
	ID          string          `json:"id"`
	Kind        BadgeKind       `json:"kind"`
	Requirement int             `json:"requirement"`
	Category    QuestCategory   `json:"category,omitempty"`   // Kind == category 时有效
	Difficulty  QuestDifficulty `json:"difficulty,omitempty"` // Kind == difficulty 时有效
	Name        string          `json:"name"`
}

// BadgeCatalog 全量徽章目录，按解锁难度大致排序
var BadgeCatalog = []Badge{
	{ID: "first-quest", Kind: BadgeKindQuests, Requirement: 1, Name: "初次探险"},
	{ID: "quest-novice", Kind: BadgeKindQuests, Requirement: 10, Name: "任务新秀"},
	{ID: "quest-adept", Kind: BadgeKindQuests, Requirement: 25, Name: "任务能手"},
	{ID: "quest-master", Kind: BadgeKindQuests, Requirement: 50, Name: "任务大师"},

	{ID: "streak-3", Kind: BadgeKindStreak, Requirement: 3, Name: "连续三天"},
	{ID: "streak-7", Kind: BadgeKindStreak, Requirement: 7, Name: "一周不断"},
	{ID: "streak-14", Kind: BadgeKindStreak, Requirement: 14, Name: "半月坚持"},
	{ID: "streak-30", Kind: BadgeKindStreak, Requirement: 30, Name: "满月之约"},

	{ID: "math-whiz", Kind: BadgeKindCategory, Requirement: 5, Category: CategoryMath, Name: "数学达人"},
	{ID: "science-star", Kind: BadgeKindCategory, Requirement: 5, Category: CategoryScience, Name: "科学之星"},
	{ID: "language-lover", Kind: BadgeKindCategory, Requirement: 5, Category: CategoryLanguage, Name: "语言爱好者"},
	{ID: "social-scholar", Kind: BadgeKindCategory, Requirement: 5, Category: CategorySocialStudies, Name: "人文学者"},

	{ID: "hard-challenger", Kind: BadgeKindDifficulty, Requirement: 3, Difficulty: DifficultyHard, Name: "挑战者"},
	{ID: "hard-conqueror", Kind: BadgeKindDifficulty, Requirement: 10, Difficulty: DifficultyHard, Name: "征服者"},
}
