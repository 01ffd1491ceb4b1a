package digest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
)

const (
	parentTitle      = "今週のトレンド技術キーワード"
	noLinksText      = "_関連リンクが見つかりませんでした_"
	parentRankLines  = 10
	threadKeywords   = 3
	threadLinksLimit = 5
)

var (
	ErrEmptyChannel = errors.New("SLACK_CHANNEL_ID is empty")
	ErrParentPost   = errors.New("chat.postMessage failed")

	// C/G 开头的频道 ID，允许带注释
	channelIDPattern = regexp.MustCompile(`\b[CG][A-Z0-9]{8,}\b`)
)

// ResolveChannelID 优先提取频道 ID；否则把第一个空白分隔的词（去掉 #）当作频道名
func ResolveChannelID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyChannel
	}
	if m := channelIDPattern.FindString(strings.ToUpper(s)); m != "" {
		return m, nil
	}
	fields := strings.Fields(strings.TrimLeft(s, "#"))
	if len(fields) == 0 {
		return "", ErrEmptyChannel
	}
	return fields[0], nil
}

// RankingLines Slack 父消息中的排名行
func RankingLines(d *Digest) []string {
	lines := make([]string, 0, len(d.Ranked))
	for _, k := range d.Ranked {
		lines = append(lines, fmt.Sprintf("%d. *%s* — %d件", k.Rank, k.Term, k.Count))
	}
	return lines
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

// ParentBlocks 标题 / 日期与页面链接 / 分割线 / 前 10 名
func ParentBlocks(rankingLines []string, pageURL, date string) []slack.Block {
	if len(rankingLines) > parentRankLines {
		rankingLines = rankingLines[:parentRankLines]
	}
	return []slack.Block{
		slack.NewHeaderBlock(plain(parentTitle)),
		slack.NewContextBlock("",
			mrkdwn("*集計日*: "+date),
			mrkdwn(fmt.Sprintf("*詳細*: <%s|ページを見る>", pageURL)),
		),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(mrkdwn(strings.Join(rankingLines, "\n")), nil, nil),
	}
}

// ThreadBlocks 关键词标题 + 关联链接列表；没有可用链接时显示占位文案
func ThreadBlocks(keyword string, links []collector.Item) []slack.Block {
	bullets := make([]string, 0, len(links))
	for _, it := range links {
		if it.Link == "" {
			continue
		}
		bullets = append(bullets, fmt.Sprintf("• <%s|%s>  _%s_", it.Link, it.Title, it.Source))
	}
	body := strings.Join(bullets, "\n")
	if body == "" {
		body = noLinksText
	}
	return []slack.Block{
		slack.NewHeaderBlock(plain(keyword + " の関連トピック")),
		slack.NewSectionBlock(mrkdwn(body), nil, nil),
	}
}

// Poster chat.postMessage 的最小接口，*slack.Client 满足
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier 发送父消息，并把前 3 个关键词的详情发到线程里
type SlackNotifier struct {
	client  Poster
	channel string
	log     logger.Logger
}

func NewSlackNotifier(client Poster, rawChannel string, log logger.Logger) (*SlackNotifier, error) {
	ch, err := ResolveChannelID(rawChannel)
	if err != nil {
		return nil, err
	}
	return &SlackNotifier{client: client, channel: ch, log: log}, nil
}

// NewSlackClient 创建 Slack Web API 客户端；apiURL 为空时使用官方地址
func NewSlackClient(token, apiURL string) *slack.Client {
	if apiURL == "" {
		return slack.New(token)
	}
	return slack.New(token, slack.OptionAPIURL(apiURL))
}

func (n *SlackNotifier) Notify(ctx context.Context, d *Digest, pageURL string) error {
	_, ts, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionBlocks(ParentBlocks(RankingLines(d), pageURL, d.Date)...),
		slack.MsgOptionText(parentTitle, false),
	)
	if err != nil {
		n.log.Error("slack parent post failed", logger.String("channel", n.channel), logger.Error(err))
		return fmt.Errorf("%w: %v", ErrParentPost, err)
	}

	top := d.Ranked
	if len(top) > threadKeywords {
		top = top[:threadKeywords]
	}
	for _, k := range top {
		links := d.Evidence[k.Term]
		if len(links) == 0 {
			continue
		}
		if len(links) > threadLinksLimit {
			links = links[:threadLinksLimit]
		}
		_, _, err := n.client.PostMessageContext(ctx, n.channel,
			slack.MsgOptionTS(ts),
			slack.MsgOptionBlocks(ThreadBlocks(k.Term, links)...),
			slack.MsgOptionText(k.Term+" の関連トピック", false),
		)
		if err != nil {
			n.log.Warn("slack thread post failed", logger.String("keyword", k.Term), logger.Error(err))
		}
	}
	return nil
}
