package telegram

import (
	"fmt"
	"strings"

	"anycraft.io/bot/internal/booster"
)

const (
	parseModeMarkdownV2 = "MarkdownV2"
	defaultLanguage     = "en"

	AccessDeniedText    = "🔐 Access denied!"
	BuyBoostersButton   = "🔋 Buy boosters"
	buyBoostersCallback = "buy_aeon"
	gameGuideCallback   = "faq"

	BoosterMenuText = "🔋Boosters allow you to refill your crafting energy, so you can keep crafting without waiting. \n\n" +
		"Select a pack below to keep the creativity flowing!"
)

// texts - локализованные тексты меню
type texts struct {
	Welcome         string
	GameGuide       string
	PlayButton      string
	CommunityButton string
	ChatENButton    string
	ChatRUButton    string
	SiteButton      string
	GuideButton     string
}

var localizations = map[string]texts{
	"en": {
		Welcome: `*👋 Welcome to Anycraft\!*
Anycraft is an AI\-powered game where you can create anything\! ✨

*🛠️ How to Play*
Drag one item over another to make something new\. Find special items no one has made before to earn 🌟 gold stars and 100 coins\! Discover new ways to create known items and get ⭐ silver stars and 20 coins\. Keep an eye out for these items, they're worth it\! 💎

*⚡ Energy and Boosters*
Crafting uses energy, which refills over time\. Need a quick refill? Complete tasks, invite friends, or buy boosters 🔋 and keep crafting\!

*🤝 Join Our Community*
Join our channel and community chats to not miss insights, hacks, or challenges with prizes\! 🏆`,
		GameGuide: `*🔧 Crafting Basics*
*Combine Elements*: Drag one element over another to merge them and create new items\.
*Discover Creations*: Experiment with various combinations to unlock new and unique elements\.
*Manage Energy*: Every crafting action uses energy, which refills slowly over time\.

*💰 Gold and Silver Stars*
*Regular Crafts*: Earn 1 coin for each new, non\-unique element you craft\.
*Unique Recipes*: Discover a unique recipe for an existing element and earn 20 coins\. These creations will be marked with a Silver Star\.
*Exclusive Elements*: Be the first to craft a never\-before\-seen element and receive 100 coins\. These items will be marked with Gold Stars\.

*🚀 Boost Your Craft*
*Energy Recharges*: Tap the booster icon to instantly refill your energy when it runs low\.
*Boosters*: Earn boosters as rewards for completing tasks and sharing with friends\. Boosters can also be purchased right here in the bot\.

*📤 Sharing Items*
Go to the Item tab, tap the item you want to share, and then tap Share\.

📺 *[Watch the Full Tutorial](https://www.youtube.com/shorts/X89WH6dXcFE)*`,
		PlayButton:      "🎮 Play Anycraft",
		CommunityButton: "📢 Join Community Channel",
		ChatENButton:    "💬 Chat EN",
		ChatRUButton:    "💬 Chat RU",
		SiteButton:      "🌐 Website and Roadmap",
		GuideButton:     "📖 Game Guide",
	},
}

// textsFor выбирает локализацию по первым двум буквам language_code, иначе английскую.
func textsFor(languageCode string) texts {
	if len(languageCode) >= 2 {
		if t, ok := localizations[strings.ToLower(languageCode[:2])]; ok {
			return t
		}
	}
	return localizations[defaultLanguage]
}

// TierButtonText - подпись кнопки пакета, например "5🔋 ($1.00)".
func TierButtonText(tier booster.Tier) string {
	return fmt.Sprintf("%d🔋 ($%s)", tier.Amount, tier.DisplayPrice())
}
