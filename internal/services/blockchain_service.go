// internal/services/blockchain_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coursechain-backend/internal/config"
	"github.com/javajoker/coursechain-backend/internal/models"
)

const defaultCallTimeout = 10 * time.Second

var (
	ErrInvalidAddress   = errors.New("invalid account address")
	ErrCourseNotOnChain = errors.New("course does not exist on chain")
)

// ContractCaller performs read-only contract calls. *ethclient.Client
// satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BlockchainService reads the course marketplace contract.
type BlockchainService struct {
	client   *ethclient.Client
	caller   ContractCaller
	contract common.Address
	abi      abi.ABI
	timeout  time.Duration
	log      *logrus.Entry
}

func NewBlockchainService(cfg config.BlockchainConfig) (*BlockchainService, error) {
	if cfg.RPC_URL == "" {
		return nil, errors.New("blockchain RPC URL is not configured")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	client, err := ethclient.Dial(cfg.RPC_URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to blockchain RPC: %w", err)
	}

	s, err := newBlockchainService(client, common.HexToAddress(cfg.ContractAddress), time.Duration(cfg.CallTimeout)*time.Second)
	if err != nil {
		client.Close()
		return nil, err
	}
	s.client = client
	s.log = s.log.WithField("network", cfg.Network)

	s.log.WithField("contract", s.contract.Hex()).Info("Course contract client initialized")
	return s, nil
}

func newBlockchainService(caller ContractCaller, contract common.Address, timeout time.Duration) (*BlockchainService, error) {
	parsed, err := abi.JSON(strings.NewReader(CourseMarketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse course contract ABI: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &BlockchainService{
		caller:   caller,
		contract: contract,
		abi:      parsed,
		timeout:  timeout,
		log:      logrus.WithField("component", "blockchain"),
	}, nil
}

func (s *BlockchainService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *BlockchainService) GetCourse(ctx context.Context, courseID uint64) (*ContractCourse, error) {
	values, err := s.call(ctx, "getCourse", new(big.Int).SetUint64(courseID))
	if err != nil {
		return nil, err
	}
	if len(values) != 5 {
		return nil, fmt.Errorf("getCourse: unexpected %d return values", len(values))
	}

	title, ok1 := values[0].(string)
	description, ok2 := values[1].(string)
	author, ok3 := values[2].(common.Address)
	price, ok4 := values[3].(*big.Int)
	createdAt, ok5 := values[4].(*big.Int)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return nil, errors.New("getCourse: malformed return values")
	}

	// Unset mapping slots come back zeroed rather than reverting.
	if author == (common.Address{}) {
		return nil, fmt.Errorf("%w: %d", ErrCourseNotOnChain, courseID)
	}
	if !createdAt.IsInt64() {
		return nil, fmt.Errorf("getCourse: createdAt %s out of range", createdAt)
	}

	return &ContractCourse{
		Title:       title,
		Description: description,
		Author:      models.NormalizeAddress(author.Hex()),
		Price:       decimal.NewFromBigInt(price, 0),
		CreatedAt:   createdAt.Int64(),
	}, nil
}

func (s *BlockchainService) GetCourseCount(ctx context.Context) (uint64, error) {
	values, err := s.call(ctx, "getCourseCount")
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("getCourseCount: unexpected %d return values", len(values))
	}

	count, ok := values[0].(*big.Int)
	if !ok || !count.IsUint64() {
		return 0, errors.New("getCourseCount: malformed return value")
	}
	return count.Uint64(), nil
}

func (s *BlockchainService) GetUserPurchasedCourses(ctx context.Context, user string) ([]uint64, error) {
	address, err := parseAddress(user)
	if err != nil {
		return nil, err
	}

	values, err := s.call(ctx, "getUserPurchasedCourses", address)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("getUserPurchasedCourses: unexpected %d return values", len(values))
	}

	raw, ok := values[0].([]*big.Int)
	if !ok {
		return nil, errors.New("getUserPurchasedCourses: malformed return value")
	}

	ids := make([]uint64, 0, len(raw))
	for _, id := range raw {
		if !id.IsUint64() {
			return nil, fmt.Errorf("getUserPurchasedCourses: course id %s out of range", id)
		}
		ids = append(ids, id.Uint64())
	}
	return ids, nil
}

func (s *BlockchainService) HasUserPurchasedCourse(ctx context.Context, courseID uint64, user string) (bool, error) {
	address, err := parseAddress(user)
	if err != nil {
		return false, err
	}

	values, err := s.call(ctx, "hasUserPurchasedCourse", new(big.Int).SetUint64(courseID), address)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, fmt.Errorf("hasUserPurchasedCourse: unexpected %d return values", len(values))
	}

	purchased, ok := values[0].(bool)
	if !ok {
		return false, errors.New("hasUserPurchasedCourse: malformed return value")
	}
	return purchased, nil
}

func (s *BlockchainService) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := s.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to pack call: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	output, err := s.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &s.contract,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: contract call failed: %w", method, err)
	}

	values, err := s.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return values, nil
}

func parseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address), nil
}
